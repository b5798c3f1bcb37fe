// splunk-directory serves the saved-search directory tools over the
// line-oriented JSON protocol on stdin/stdout.
//
// Examples:
//
//	export SPLUNK_HOST=splunk.internal SPLUNK_PASSWORD=...
//	splunk-directory
//
//	splunk-directory -call get_saved_searches_list
//	splunk-directory -call get_saved_search_details -args '{"search_name":"get_delayed_nodes"}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	json "github.com/alpkeskin/gotoon"
	"github.com/joho/godotenv"

	agent "github.com/Protocol-Lattice/splunk-agent"
	"github.com/Protocol-Lattice/splunk-agent/src/splunk"
)

var (
	flagCall = flag.String("call", "", "Invoke a single tool by name and exit")
	flagArgs = flag.String("args", "{}", "JSON arguments for -call")
)

func main() {
	flag.Parse()

	// Best effort, like the rest of the env handling: a missing .env is fine.
	_ = godotenv.Load()

	ctx := context.Background()

	service := splunk.NewService(splunk.NewClientFromEnv())
	catalog := agent.NewStaticToolCatalog(splunk.Tools(service))

	server, err := agent.NewServer(ctx, "splunk-directory", catalog)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	if *flagCall != "" {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(*flagArgs), &args); err != nil {
			log.Fatalf("invalid -args: %v", err)
		}
		out, err := server.Call(ctx, *flagCall, args)
		if err != nil {
			log.Fatalf("call %s: %v", *flagCall, err)
		}
		fmt.Println(out)
		return
	}

	log.Printf("splunk-directory: serving %d tools for app %q", len(catalog.Specs()), service.App())
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
