package repository

import "fmt"

// Relation enumerates the relationship types of the graph. Query text only
// ever renders type names and labels from this table.
type Relation int

const (
	Posted Relation = iota + 1
	Follows
	LikesTweet
	LikesComment
	CommentsOn
)

type relationSpec struct {
	typ     string
	from    string
	to      string
	counter string
	mutable bool
}

var relations = map[Relation]relationSpec{
	Posted:       {typ: "POSTED", from: "User"},
	Follows:      {typ: "FOLLOWS", from: "User", to: "User", mutable: true},
	LikesTweet:   {typ: "LIKES_TWEET", from: "User", to: "Tweet", counter: "likesCount", mutable: true},
	LikesComment: {typ: "LIKES_COMMENT", from: "User", to: "Comment", counter: "likesCount", mutable: true},
	CommentsOn:   {typ: "COMMENTS_ON", from: "Comment", to: "Tweet"},
}

func (r Relation) String() string {
	if spec, ok := relations[r]; ok {
		return spec.typ
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

func (r Relation) spec() (relationSpec, error) {
	spec, ok := relations[r]
	if !ok {
		return relationSpec{}, fmt.Errorf("unknown relation %d", int(r))
	}
	return spec, nil
}

// mergeEdgeQuery builds the atomic conditional creation of r between two
// nodes bound by $fromId and $toId. The edge and the target's counter are
// written together on creation only. No row means an endpoint is missing;
// otherwise "created" tells whether this call made the edge.
func mergeEdgeQuery(r Relation) (string, error) {
	spec, err := mutableSpec(r)
	if err != nil {
		return "", err
	}

	onCreate := "r.createdAt = $now"
	if spec.counter != "" {
		onCreate += fmt.Sprintf(", b.%[1]s = coalesce(b.%[1]s, 0) + 1", spec.counter)
	}

	return fmt.Sprintf(`
		MATCH (a:%s {id: $fromId})
		MATCH (b:%s {id: $toId})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET %s
		RETURN r.createdAt = $now AS created
	`, spec.from, spec.to, spec.typ, onCreate), nil
}

// deleteEdgeQuery builds the removal of r between $fromId and $toId. No row
// means the target is missing; "existed" is false when there was no edge.
func deleteEdgeQuery(r Relation) (string, error) {
	spec, err := mutableSpec(r)
	if err != nil {
		return "", err
	}

	decrement := ""
	if spec.counter != "" {
		decrement = fmt.Sprintf(`
		FOREACH (_ IN CASE WHEN existed THEN [1] ELSE [] END |
			SET b.%[1]s = CASE WHEN coalesce(b.%[1]s, 0) > 0 THEN b.%[1]s - 1 ELSE 0 END)`, spec.counter)
	}

	return fmt.Sprintf(`
		MATCH (b:%s {id: $toId})
		OPTIONAL MATCH (:%s {id: $fromId})-[r:%s]->(b)
		WITH b, r, r IS NOT NULL AS existed
		DELETE r%s
		RETURN existed
	`, spec.to, spec.from, spec.typ, decrement), nil
}

func mutableSpec(r Relation) (relationSpec, error) {
	spec, err := r.spec()
	if err != nil {
		return relationSpec{}, err
	}
	if !spec.mutable {
		return relationSpec{}, fmt.Errorf("relation %s cannot be created or removed on its own", spec.typ)
	}
	return spec, nil
}

// mustQuery panics on builder errors. Only used for package-level queries
// built from constants.
func mustQuery(q string, err error) string {
	if err != nil {
		panic(err)
	}
	return q
}
