// Package metadata joins the size-independent information about a file:
// image info, the repository it lives in, local and global usage, and the
// uploader when gendered interface text needs it.
//
// The four independent requests run concurrently. The uploader request
// waits for both image info and repo info, because the repository to ask is
// taken from the repo map using the key the image info reports.
package metadata
