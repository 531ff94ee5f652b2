package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/saulfrancisco-ruizacevedo/gocypher"

	database "github.com/subhadeepchowdhury41/we-share/db"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

type UserRepository interface {
	Create(ctx context.Context, user models.NewUser) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch, now time.Time) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Follow(ctx context.Context, followerID, targetID string, now time.Time) (bool, error)
	Unfollow(ctx context.Context, followerID, targetID string) (bool, error)
	ListFollowers(ctx context.Context, id string) ([]*models.User, error)
	ListFollowings(ctx context.Context, id string) ([]*models.User, error)
}

var (
	userProjection = fmt.Sprintf(`u AS user,
		COUNT { (:User)-[:%[1]s]->(u) } AS followersCount,
		COUNT { (u)-[:%[1]s]->(:User) } AS followingCount`, Follows)

	followQuery   = mustQuery(mergeEdgeQuery(Follows))
	unfollowQuery = mustQuery(deleteEdgeQuery(Follows))
)

type userRepository struct {
	runner database.Runner
	mapper mapper
}

func NewUserRepository(runner database.Runner, dates *database.Dates) UserRepository {
	return &userRepository{runner: runner, mapper: mapper{dates: dates}}
}

// Create inserts the user unless the username is taken. The lookup and the
// insert share one transaction; the uniqueness constraint covers races
// between transactions.
func (r *userRepository) Create(ctx context.Context, user models.NewUser) (*models.User, error) {
	lookup, lookupParams, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", "User").WithProperties(map[string]interface{}{"username": user.Username})).
		Return("u").
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build username lookup: %w", err)
	}

	query := `
		CREATE (u:User {
			id: $id,
			username: $username,
			email: $email,
			password: $password,
			name: $name,
			bio: '',
			profileImage: '',
			coverImage: '',
			isVerified: false,
			createdAt: $now,
			updatedAt: $now
		})
		RETURN ` + userProjection

	var created *models.User
	err = r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		existing, err := tx.Run(ctx, lookup, lookupParams)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperr.Newf(apperr.DuplicateUsername, "username %q is already taken", user.Username)
		}

		records, err := tx.Run(ctx, query, map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"password": user.PasswordHash,
			"name":     user.Name,
			"now":      user.CreatedAt,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("create returned no user")
		}
		created = r.mapper.user(records[0])
		return nil
	})
	if err != nil {
		if database.IsConstraintViolation(err) {
			return nil, apperr.Wrap(apperr.DuplicateUsername, err, fmt.Sprintf("username %q is already taken", user.Username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `MATCH (u:User {id: $id}) RETURN ` + userProjection
	return r.one(ctx, query, map[string]any{"id": id}, "user")
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `MATCH (u:User {username: $username}) RETURN ` + userProjection
	return r.one(ctx, query, map[string]any{"username": username}, "user")
}

// GetCredentials loads the bare user node, password hash included, without
// the follow counts.
func (r *userRepository) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("user", "User").WithProperties(map[string]interface{}{"username": username})).
		Return("user").
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build credentials lookup: %w", err)
	}
	return r.one(ctx, query, params, "user")
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		MATCH (u:User)
		RETURN ` + userProjection + `
		ORDER BY u.createdAt DESC
	`
	records, err := r.runner.Read(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return r.mapper.users(records), nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch models.UserPatch, now time.Time) (*models.User, error) {
	query := `
		MATCH (u:User {id: $id})
		SET u.name = coalesce($name, u.name),
			u.bio = coalesce($bio, u.bio),
			u.profileImage = coalesce($profileImage, u.profileImage),
			u.coverImage = coalesce($coverImage, u.coverImage),
			u.updatedAt = $now
		RETURN ` + userProjection

	records, err := r.runner.Write(ctx, query, map[string]any{
		"id":           id,
		"name":         optional(patch.Name),
		"bio":          optional(patch.Bio),
		"profileImage": optional(patch.ProfileImage),
		"coverImage":   optional(patch.CoverImage),
		"now":          now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return r.mapper.user(records[0]), nil
}

// Delete removes the user with everything they authored. Counters on content
// the user liked or commented on are corrected in the same transaction.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	detach, detachParams, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", "User").WithProperties(map[string]interface{}{"id": id})).
		DetachDelete("u").
		Build()
	if err != nil {
		return fmt.Errorf("failed to build user delete: %w", err)
	}

	steps := []string{
		fmt.Sprintf(`
			MATCH (:User {id: $id})-[:%s]->(t:Tweet)
			SET t.likesCount = CASE WHEN coalesce(t.likesCount, 0) > 0 THEN t.likesCount - 1 ELSE 0 END`, LikesTweet),
		fmt.Sprintf(`
			MATCH (:User {id: $id})-[:%s]->(c:Comment)
			SET c.likesCount = CASE WHEN coalesce(c.likesCount, 0) > 0 THEN c.likesCount - 1 ELSE 0 END`, LikesComment),
		fmt.Sprintf(`
			MATCH (:User {id: $id})-[:%[1]s]->(c:Comment)-[:%[2]s]->(t:Tweet)
			WHERE NOT EXISTS { (:User {id: $id})-[:%[1]s]->(t) }
			WITH t, count(c) AS n
			SET t.commentsCount = CASE WHEN coalesce(t.commentsCount, 0) > n THEN t.commentsCount - n ELSE 0 END`, Posted, CommentsOn),
		fmt.Sprintf(`
			MATCH (:User {id: $id})-[:%s]->(:Tweet)<-[:%s]-(c:Comment)
			DETACH DELETE c`, Posted, CommentsOn),
		fmt.Sprintf(`
			MATCH (:User {id: $id})-[:%s]->(n)
			WHERE n:Tweet OR n:Comment
			DETACH DELETE n`, Posted),
	}

	err = r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		found, err := tx.Run(ctx, `MATCH (u:User {id: $id}) RETURN u.id AS id`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return apperr.New(apperr.NotFound, "user not found")
		}
		for _, step := range steps {
			if _, err := tx.Run(ctx, step, map[string]any{"id": id}); err != nil {
				return err
			}
		}
		_, err = tx.Run(ctx, detach, detachParams)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Follow reports whether a new FOLLOWS edge was created.
func (r *userRepository) Follow(ctx context.Context, followerID, targetID string, now time.Time) (bool, error) {
	records, err := r.runner.Write(ctx, followQuery, map[string]any{
		"fromId": followerID,
		"toId":   targetID,
		"now":    now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to follow user: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "user not found")
	}
	return database.AsBool(database.Value(records[0], "created")), nil
}

// Unfollow reports whether an edge was removed.
func (r *userRepository) Unfollow(ctx context.Context, followerID, targetID string) (bool, error) {
	records, err := r.runner.Write(ctx, unfollowQuery, map[string]any{
		"fromId": followerID,
		"toId":   targetID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to unfollow user: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "user not found")
	}
	return database.AsBool(database.Value(records[0], "existed")), nil
}

func (r *userRepository) ListFollowers(ctx context.Context, id string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		MATCH (u:User)-[f:%s]->(:User {id: $id})
		RETURN %s
		ORDER BY f.createdAt DESC
	`, Follows, userProjection)
	records, err := r.runner.Read(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return r.mapper.users(records), nil
}

func (r *userRepository) ListFollowings(ctx context.Context, id string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		MATCH (:User {id: $id})-[f:%s]->(u:User)
		RETURN %s
		ORDER BY f.createdAt DESC
	`, Follows, userProjection)
	records, err := r.runner.Read(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to list followings: %w", err)
	}
	return r.mapper.users(records), nil
}

func (r *userRepository) one(ctx context.Context, query string, params map[string]any, what string) (*models.User, error) {
	records, err := r.runner.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.NotFound, what+" not found")
	}
	return r.mapper.user(records[0]), nil
}
