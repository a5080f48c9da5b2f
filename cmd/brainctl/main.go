// Command brainctl operates a local-first personal knowledge retrieval
// engine: ingest documents, search the hybrid index directly, and recall
// what the three-tier memory store has learned about the user.
package main

import "github.com/kunalkushwaha/agentflow/cmd/brainctl/cmd"

func main() {
	cmd.Execute()
}
