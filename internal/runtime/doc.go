// Package runtime wires storage, the feed store and manifests for one data
// directory. It exposes Open/Close, a health check, and named Write/Read
// flows built on the paging engine and the reader.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	res, err := rt.Write(ctx, runtime.WriteOptions{Name: "backup", Source: source.NewBytes(b)})
//	// keep res.MasterKey; it is never stored
//	_, err = rt.Read(ctx, "backup", res.MasterKey, os.Stdout)
package runtime
