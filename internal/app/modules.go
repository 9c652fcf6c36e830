package app

import (
	"github.com/vk/dagflow/internal/registry"
	"github.com/vk/dagflow/modules/arith"
	"github.com/vk/dagflow/modules/env_vars"
	"github.com/vk/dagflow/modules/http_client"
	"github.com/vk/dagflow/modules/print"
)

// coreModules is the definitive list of all modules that are compiled into
// the dagflow binary.
var coreModules = []registry.Module{
	&arith.Module{},
	&env_vars.Module{},
	&http_client.Module{},
	&print.Module{},
}
