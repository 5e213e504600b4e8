// Package hostedwebcore embeds a hosted web core engine inside the current
// process and governs its lifecycle.
//
// A web core is an expensive, non-idempotent native resource: activating it
// binds ports, reads configuration files and may start worker processes. At
// most one can be active per process. This library makes sure it is created
// once, shared by every caller that asks for it, and shut down when the last
// caller lets go.
//
// # Architecture Overview
//
//	hostedwebcore/       Root package with the immutable Setup value
//	├── webcore/         High-level API: create, attach, read setup, stop
//	├── native/          Engine loaders and the reference-counted registry
//	├── errors/          Structured error types
//	├── config/          YAML/dotenv configuration for the hwc command
//	└── cmd/hwc/         Command line host with an interactive console
//
// # Quick Start
//
//	wc, err := webcore.NewDefault(`C:\site\applicationHost.config`, `C:\site\web.config`, "tests")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer wc.Close()
//
//	setup, _ := webcore.CurrentSetup()
//	fmt.Println(setup.InstanceName()) // "tests"
//
// # Sharing
//
// Every successful webcore.New returns a new reference to the same engine.
// The setup used by the first creation stays in effect until the last
// reference is released; later setups are not applied.
//
// # Thread Safety
//
// All create, read and stop operations of a webcore.Host are serialized by
// one critical section. Setup values are immutable and safe to share.
package hostedwebcore
