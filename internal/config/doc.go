// Package config defines the format-agnostic model of pipeline definition
// files and the Loader interface that produces it.
//
// Concrete loaders, such as the HCL one, live in separate packages. The app
// package turns a Model into runnable pipelines through the function
// registry.
package config
