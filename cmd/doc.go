// # Available Commands
//
//   - dev: Watch, build, and serve in one process
//   - watch: Rebuild whenever watched sources change
//   - serve: Serve the working tree over HTTP
//   - index: Write a grouped listing of the pages in a directory
//   - config: Print or validate the effective configuration
//   - version: Show build metadata
//
// # Command Examples
//
//	// Watch src/ and lib/, rebuild with make
//	pagewatch watch -w src -w lib --build-cmd make --build-arg bundle
//
//	// Serve pages from tests/ and bundles from dist/
//	pagewatch serve --pages-dir tests --scripts-dir dist
//
//	// Regenerate the grouped listing
//	pagewatch index tests --groups-file groups.yml
package cmd
