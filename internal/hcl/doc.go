// Package hcl provides the concrete HCL implementation of config.Loader. It
// is responsible for all file parsing, HCL-to-model translation, and
// cty-to-Go conversion of task kwargs.
//
// A definition file holds pipeline and workflow blocks:
//
//	pipeline "init" {
//	  task "seed" {
//	    func   = "const"
//	    kwargs = { value = 5 }
//	  }
//	  task "double" {
//	    func        = "mul"
//	    kwargs      = { factor = 2 }
//	    depends_on  = ["seed"]
//	    input_types = [number]
//	    output_type = number
//	  }
//	}
//
//	workflow "main" {
//	  steps = ["init"]
//	}
//
// A depends_on entry of the form "pipeline.NAME" refers to the last task of
// pipeline NAME; any other entry is a task name.
package hcl
