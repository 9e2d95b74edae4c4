/*
Package filesystem reads local files with retries for NFS stale file handle
errors (ESTALE).

The page document named by PAGE_FILE and the YAML file named by CONFIG_FILE
are often mounted from a network share. A stale handle there is usually
transient, so reads are retried with exponential backoff:

	data, err := filesystem.ReadFile(path, filesystem.DefaultRetryConfig())

Any other error is returned immediately. Retries are counted in
media_lightbox_filesystem_retries_total and stale handles in
media_lightbox_filesystem_stale_errors_total.
*/
package filesystem
