/*
Package workers sizes worker pools from the CPU budget of the container.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU still
reports the host. Pools sized here follow GOMAXPROCS:

	workers.ForIO(8)   // API fan-out, twice the CPUs, at most 8
	workers.ForCPU(0)  // decoding, one per CPU

[Preload] sizes the metadata preload pool of the viewer. PRELOAD_WORKERS
overrides it; otherwise it is an I/O sized pool capped at
[DefaultPreloadLimit].
*/
package workers
