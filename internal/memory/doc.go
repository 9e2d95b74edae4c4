// Package memory keeps the process inside its container memory limit.
//
// Decoded renditions and the in-memory rendition cache are the largest heap
// consumers of the service. This package does two things about that:
//
//   - [Configure] sets GOMEMLIMIT from a container limit passed in through
//     the Kubernetes Downward API (MEMORY_LIMIT, MEMORY_RATIO), unless
//     GOMEMLIMIT is already set.
//   - [Monitor] samples the heap and, above a high water mark, runs the
//     registered [Releaser] functions (for example trimming the rendition
//     cache) until usage falls below the low water mark.
//
// # Kubernetes Configuration
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.85"
//
// # Example
//
//	memory.Configure(os.Getenv)
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Register("renditions", func() int64 { return fetcher.TrimCache(0.25) })
//	monitor.Start()
//	defer monitor.Stop()
package memory
