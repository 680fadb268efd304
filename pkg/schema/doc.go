// Package schema compiles document declarations into a tree of typed paths.
//
// Every path is bound to a Type that knows how to cast raw input into its
// canonical in-memory value, validate it, compare and match values, and
// convert between the in-memory and persisted forms. Types also expose named
// query (q$) and update (u$) operators that a document layer resolves by name:
//
//	s, err := schema.New(schema.Declaration{
//	    "name":  schema.String,
//	    "tags":  []any{schema.String},
//	    "owner": schema.Declaration{"email": schema.Field{Type: schema.String, Options: schema.Options{Lowercase: true}}},
//	})
//
//	tags, _ := s.Path("tags")
//	push, _ := tags.UpdateOperator(schema.UpdateName("$push"))
//	next := push([]any{"a"}, "b", nil) // []any{"a", "b"}
//
// Declarations can also be read from YAML:
//
//	decl, err := schema.ParseDeclaration([]byte(`
//	name: string
//	tags: "[string]"
//	age:  { type: number, min: 0 }
//	`))
//
// A schema is not safe to mutate while documents use it. Collections call
// Freeze before processing documents; after that every mutation returns a
// *TypeError.
//
// Only two error kinds come out of this package: *TypeError for misuse while
// building a schema and *ValidationError for data that fails validation.
package schema
