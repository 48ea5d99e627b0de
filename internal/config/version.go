package config

// Version is the graph-builder binary version, set at build time via
// -ldflags "-X github.com/citadelrisk/graphbuilder/internal/config.Version=<tag>".
var Version = "dev"
