// Package preflight provides readiness checks for the filesystem paths and
// the Podcast Index account pullapod depends on.
//
// These checks run in two contexts:
//   - The download pipeline calls CheckDirectoryAccess and CheckFreeSpace
//     before writing anything, so a doomed batch fails up front.
//   - The CLI "pullapod config validate" command uses RunAll to display the
//     health of every configured path and the API credentials.
package preflight
