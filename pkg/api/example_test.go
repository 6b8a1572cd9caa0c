// pkg/api/example_test.go
package api_test

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/valpere/tatooine/pkg/api"
)

func Example() {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<ul>
			<li><a href="/p/1">First   post</a></li>
			<li><a href="/p/2">Second post</a></li>
		</ul>`)
	}))
	defer site.Close()

	schemas := []*api.Schema{{
		Engine:  api.EngineMarkup,
		Options: api.Options{Request: api.RequestOptions{URL: site.URL}},
		Selectors: api.Selectors{
			"root":  {Value: "li"},
			"title": {Value: "a"},
			"link":  {Value: "a", Attribute: "href", Prefix: "https://blog.example.com"},
		},
		Metadata: "blog",
	}}

	envelopes, err := api.Dispatch(context.Background(), schemas)
	if err != nil {
		log.Fatal(err)
	}

	for _, source := range envelopes[0].Sources {
		fmt.Println(source["title"], source["link"])
	}
	fmt.Println(envelopes[0].Metadata)
	// Output:
	// First post https://blog.example.com/p/1
	// Second post https://blog.example.com/p/2
	// blog
}

func ExampleEngineFunc() {
	shout := api.EngineFunc("shout", func(ctx context.Context, schema *api.Schema) (*api.Envelope, error) {
		return &api.Envelope{
			Sources:  []api.Record{{"text": strings.ToUpper(schema.Options.Request.URL)}},
			Metadata: schema.Metadata,
		}, nil
	})

	client := api.NewClient(api.WithEngines(shout))
	envelopes, err := client.Dispatch(context.Background(), []*api.Schema{
		{Engine: "shout", Options: api.Options{Request: api.RequestOptions{URL: "hello"}}},
		{Engine: "whisper"},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(envelopes), envelopes[0].Sources[0]["text"])
	// Output: 1 HELLO
}

func ExampleParseSchemas() {
	schemas, err := api.ParseSchemas([]byte(`
schemas:
  - engine: json
    options:
      request:
        url: https://api.example.com/items
        method: post
      limit: 10
    selectors:
      root:
        value: data.items
      name:
        value: name
`))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(schemas[0].Engine, schemas[0].Options.Request.Method, schemas[0].Options.Limit)
	// Output: json POST 10
}
