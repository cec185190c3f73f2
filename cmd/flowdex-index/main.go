// Command flowdex-index runs a single indexing pipeline described by a
// YAML configuration file: a filesystem loader, an optional character
// chunker, a cache gate, and a sqlite sink, wired together the way a
// small example program demonstrates a library rather than a full
// deployment tool (§12 "cmd/flowdex-index").
package main

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowdex-index",
		Short: "Run a flowdex indexing pipeline from a YAML config file",
	}
	root.AddCommand(newRunCmd())
	return root
}
