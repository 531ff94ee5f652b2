package repository

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	database "github.com/subhadeepchowdhury41/we-share/db"
	"github.com/subhadeepchowdhury41/we-share/metrics"
)

type call struct {
	mode   string
	cypher string
	params map[string]any
}

// fakeRunner answers every statement through respond and records the calls.
type fakeRunner struct {
	calls   []call
	respond func(cypher string, params map[string]any) ([]*neo4j.Record, error)
	commits int
}

func (f *fakeRunner) run(mode, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	f.calls = append(f.calls, call{mode: mode, cypher: cypher, params: params})
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(cypher, params)
}

func (f *fakeRunner) Read(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return f.run("read", cypher, params)
}

func (f *fakeRunner) Write(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return f.run("write", cypher, params)
}

func (f *fakeRunner) ExecuteWrite(_ context.Context, fn func(database.Tx) error) error {
	if err := fn(fakeTx{f}); err != nil {
		return err
	}
	f.commits++
	return nil
}

type fakeTx struct{ f *fakeRunner }

func (t fakeTx) Run(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return t.f.run("tx", cypher, params)
}

func record(kv ...any) *neo4j.Record {
	r := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Keys = append(r.Keys, kv[i].(string))
		r.Values = append(r.Values, kv[i+1])
	}
	return r
}

func node(props map[string]any) neo4j.Node {
	return neo4j.Node{Props: props}
}

func testDates() *database.Dates {
	return database.NewDates(zap.NewNop(), metrics.New())
}

var stamp = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
