/*
Package warehouse is a lightweight document store driven by schemas.

A schema (package schema) declares the paths of a document and the type of
each path. Types coerce loosely typed input into canonical values, validate
them, convert them to and from their stored form, and expose query ("q$")
and update ("u$") operators. A Collection binds a schema to a store and runs
the document lifecycle: cast, hooks, validation, persistence.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/halu886/warehouse"
		"github.com/halu886/warehouse/pkg/schema"
	)

	func main() {
		people := schema.MustNew(schema.Declaration{
			"name": schema.Field{Type: schema.String, Options: schema.Options{Required: true}},
			"age":  schema.Number,
			"tags": []any{schema.String},
		})

		c, err := warehouse.New("people", people)
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		doc, err := c.Insert(ctx, map[string]any{"name": "Ada", "age": "36"})
		if err != nil {
			log.Fatal(err)
		}

		id := doc["_id"].(string)
		_, err = c.Update(ctx, id, warehouse.Update{"$push": map[string]any{"tags": "math"}})
		if err != nil {
			log.Fatal(err)
		}

		found, _ := c.Find(ctx, warehouse.Filter{"age": map[string]any{"$gte": 30}}, warehouse.FindOptions{Sort: "name"})
		fmt.Println(len(found))
	}

# Storage

Collections keep documents in memory unless another ports.DocumentStore is
injected with WithStore. The adapters under pkg/adapters persist to files,
to a Loam repository or to Redis; replicas sharing a Redis store should also share the Redis
locker (WithLocker) so that updates to one document are serialised.

# Serving

pkg/adapters/http serves a Registry as a JSON API with a change feed, and
pkg/adapters/mcp exposes the same collections as MCP tools.
*/
package warehouse
