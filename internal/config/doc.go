// Package config loads Helium project configuration.
//
// The configuration lives in helium.json, helium.yaml or helium.yml at the
// project root. Every field is optional; New returns the defaults that Load
// starts from.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "port": 3000,
//	    "rpcPath": "/_helium/rpc",
//	    "wsPath": "/_helium/ws",
//	    "metricsPath": "/metrics",
//	    "shutdownTimeout": "30s"
//	  },
//	  "pages": {
//	    "dir": "pages",
//	    "extensions": [".tsx", ".mdx"],
//	    "manifest": "s3://my-site/routes.json"
//	  },
//	  "rpc": {
//	    "timeout": "10s",
//	    "maxRequestBytes": 1048576,
//	    "maxInFlight": 64,
//	    "rateLimit": {"rps": 50, "burst": 100}
//	  },
//	  "log": {"level": "info", "format": "json"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
