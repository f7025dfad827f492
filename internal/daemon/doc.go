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

// Package daemon controls the background relay instance.
//
// A Controller owns one pid record. Start claims it with an exclusive create
// and detaches; Stop signals the recorded pid and removes the record; Status
// only reads it. Platform specifics (fork, signals, privilege) come from
// internal/lifecycle and can be replaced through Options.
package daemon
