// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package mapgen renders the listings map by running an external script.

The generator writes the live listings that have coordinates to a JSON
file and invokes

	<map.python> <map.script_path> --input <listings.json> --output <tmp.html>

with map.timeout (30s by default). The script's output is renamed into
map.output_path only on success, so readers never see a half-written file.

Regeneration rules:

  - a forced regeneration requires an admin
  - anyone may trigger generation while no map exists
  - admins refresh a map older than map.max_age (5 minutes by default)

Concurrent callers share one run through singleflight.
*/
package mapgen
