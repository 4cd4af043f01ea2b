/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui hosts the drawer layout in a desktop or mobile window.
package ui

import "sidebarlayout/internal/config"

// Options configures Run.
type Options struct {
	// Config is the effective configuration at startup.
	Config config.AppConfig
	// ConfigPath, when set, is watched and changes are applied live.
	ConfigPath string
}
