// Package config loads the installer's configuration: where fonts go, which
// external tools to run, network settings and the package catalog.
//
// # Format
//
// Configuration is a Lua file evaluated in a sandbox (no os, io, debug or
// module loading). It must assign a global "fonts" table:
//
//	fonts = {
//	  install_dir = nil,              -- default: $XDG_DATA_HOME/fonts/mscorefonts
//	  timeout = 10,                   -- seconds, per connect/read
//	  retries = 0,
//	  font_extensions = { ".ttf" },
//	  keyring = nil,                  -- armored OpenPGP public keyring
//	  tools = { extract = "7z", cache = "fc-cache" },
//	  packages = {
//	    { id = "arial32.exe", name = "Arial",
//	      url = "https://downloads.sourceforge.net/corefonts/arial32.exe",
//	      sha256 = nil, signature_url = nil },
//	  },
//	}
//
// A read-only "platform" table describing the host is available while the
// file runs, so values can depend on it:
//
//	install_dir = platform.when(platform.is_macos, "/Users/me/Library/Fonts/mscorefonts")
//
// When no user file exists the embedded default catalog is used.
package config
