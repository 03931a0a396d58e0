// Package debrid_tools provides the MCP tools that wrap the Real-Debrid
// resource API.
//
// # Available Tools
//
// Account:
//   - get_user_info: current user information
//   - get_traffic: traffic details for all hosters
//   - list_hosts: supported hosters
//
// Unrestricting:
//   - unrestrict_link: unrestrict a hoster link
//   - unrestrict_check: check a link without consuming it
//
// Torrents:
//   - list_torrents: list the user's torrents (optional 'active' filter)
//   - get_torrent_info: details of one torrent
//   - add_magnet: add a magnet link
//   - select_torrent_files: choose which files to download
//   - delete_torrent: remove a torrent from the list
//
// Downloads:
//   - list_downloads: previous downloads
//
// # Authentication
//
// Every tool requires a session_id obtained from oauth_check (or the
// well-known id "static" when the server was started with a fixed API
// token). The access token is validated and refreshed before each upstream
// call; an unknown session id never produces upstream traffic.
package debrid_tools
