// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package cli builds the root command of relay.

The command tree is:

	relay
	├── serve               Run the gateway in the foreground
	│   ├── start           Detach into the background
	│   ├── stop            Interrupt the background instance
	│   ├── restart         Stop, wait, start
	│   ├── status          Report the pid record
	│   └── log             Print the background output
	├── generate-template   Write a config scaffold
	└── version             Show version

Global flags are --verbose, --quiet and --json. Errors are not printed by
cobra; main passes them to HandleExitError, which maps the error kind to
an exit code.
*/
package cli
