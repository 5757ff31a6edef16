// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command rrt plans paths through grid mazes with a rapidly-exploring
// random tree and serves the planner over HTTP.
//
// Usage:
//
//	rrt plan --maze maze.txt --seed 7
//	rrt batch --seeds 1,2,3 --cache linear
//	rrt serve --config rrt.yaml
//	rrt runs list --limit 10
//	rrt runs show <run-id>
//
// Example requests against a running server:
//
//	curl http://localhost:12230/v1/rrt/health
//
//	curl -X POST http://localhost:12230/v1/rrt/plan \
//	  -H "Content-Type: application/json" \
//	  -d '{"seed": 7, "render": true}'
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
