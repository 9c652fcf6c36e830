package topologystore

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/nodeid"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/registry"
	"github.com/vk/dagflow/internal/task"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

const formatVersion = 1

var (
	// ErrUnsupportedVersion is returned for documents from another format version.
	ErrUnsupportedVersion = errors.New("unsupported topology format version")
	// ErrMissingFuncName is returned when a task has no registry name to
	// restore its function from.
	ErrMissingFuncName = errors.New("task has no function name")
)

type document struct {
	Version int       `msgpack:"version"`
	Name    string    `msgpack:"name,omitempty"`
	Nodes   []nodeDoc `msgpack:"nodes"`
	Edges   []edgeDoc `msgpack:"edges"`
}

type nodeDoc struct {
	ID    string    `msgpack:"id"`
	Tasks []taskDoc `msgpack:"tasks"`
}

type taskDoc struct {
	TID            string         `msgpack:"tid"`
	Name           string         `msgpack:"name,omitempty"`
	Desc           string         `msgpack:"desc,omitempty"`
	FuncName       string         `msgpack:"func"`
	Kwargs         map[string]any `msgpack:"kwargs,omitempty"`
	SkipValidation bool           `msgpack:"skip_validation,omitempty"`
	Dependencies   []string       `msgpack:"deps,omitempty"`
	// Type descriptors in cty JSON type notation. A nil entry is an
	// undeclared type.
	InputTypes [][]byte `msgpack:"input_types,omitempty"`
	OutputType []byte   `msgpack:"output_type,omitempty"`
}

type edgeDoc struct {
	From string `msgpack:"from"`
	To   string `msgpack:"to"`
	Key  string `msgpack:"key"`
}

// Marshal encodes the DAG of a composed pipeline.
func Marshal(p *pipeline.Pipeline) ([]byte, error) {
	g := p.DAG()
	doc := document{Version: formatVersion, Name: p.Name}

	for _, id := range g.Nodes() {
		n := nodeDoc{ID: id}
		for _, t := range g.Tasks(id) {
			if t.FuncName == "" {
				return nil, fmt.Errorf("%w: %s", ErrMissingFuncName, t)
			}
			td := taskDoc{
				TID:            t.TID,
				Name:           t.Name,
				Desc:           t.Desc,
				FuncName:       t.FuncName,
				Kwargs:         t.Kwargs,
				SkipValidation: t.SkipValidation,
			}
			if err := encodeTypes(&td, t); err != nil {
				return nil, fmt.Errorf("encode types of %s: %w", t, err)
			}
			for _, dep := range t.Dependencies() {
				td.Dependencies = append(td.Dependencies, dep.TID)
			}
			n.Tasks = append(n.Tasks, td)
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edgeDoc{From: e.From, To: e.To, Key: e.Key})
	}

	return msgpack.Marshal(&doc)
}

// Unmarshal restores a pipeline from data, binding task functions through
// reg. The restored pipeline is already composed.
func Unmarshal(data []byte, reg *registry.Registry, ids nodeid.Generator, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	g := dag.New()
	byID := make(map[string]*task.Task)
	pending := make(map[*task.Task][]string)

	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
		for _, td := range n.Tasks {
			fn, err := reg.Lookup(td.FuncName)
			if err != nil {
				return nil, fmt.Errorf("restore task %s: %w", td.TID, err)
			}
			taskOpts := []task.Option{
				task.WithTID(td.TID),
				task.WithName(td.Name),
				task.WithDesc(td.Desc),
				task.WithFuncName(td.FuncName),
				task.WithKwargs(td.Kwargs),
			}
			if td.SkipValidation {
				taskOpts = append(taskOpts, task.WithSkipValidation())
			}
			inputs, output, err := decodeTypes(td)
			if err != nil {
				return nil, fmt.Errorf("restore task %s: %w", td.TID, err)
			}
			taskOpts = append(taskOpts, task.WithTypes(inputs, output))
			t := task.New(ids, fn, taskOpts...)
			g.AddNode(n.ID, t)
			if _, seen := byID[t.TID]; !seen {
				byID[t.TID] = t
			}
			pending[t] = td.Dependencies
		}
	}
	for _, e := range doc.Edges {
		g.AddEdge(e.From, e.To, e.Key)
	}

	for t, depIDs := range pending {
		var deps []*task.Task
		for _, id := range depIDs {
			if dep, ok := byID[id]; ok {
				deps = append(deps, dep)
				t.AddRelated(id)
			}
		}
		t.SetDependencies(deps)
	}

	if doc.Name != "" {
		opts = append([]pipeline.Option{pipeline.WithName(doc.Name)}, opts...)
	}
	return pipeline.FromDAG(ids, g, opts...), nil
}

// Save writes the encoded pipeline to path.
func Save(path string, p *pipeline.Pipeline) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save topology: %w", err)
	}
	return nil
}

// Load reads a pipeline written by Save.
func Load(path string, reg *registry.Registry, ids nodeid.Generator, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}
	return Unmarshal(data, reg, ids, opts...)
}

func encodeType(ty cty.Type) ([]byte, error) {
	if ty == cty.NilType {
		return nil, nil
	}
	return ctyjson.MarshalType(ty)
}

func decodeType(data []byte) (cty.Type, error) {
	if len(data) == 0 {
		return cty.NilType, nil
	}
	return ctyjson.UnmarshalType(data)
}

func encodeTypes(td *taskDoc, t *task.Task) error {
	for _, ty := range t.InputTypes {
		b, err := encodeType(ty)
		if err != nil {
			return err
		}
		td.InputTypes = append(td.InputTypes, b)
	}
	b, err := encodeType(t.OutputType)
	if err != nil {
		return err
	}
	td.OutputType = b
	return nil
}

func decodeTypes(td taskDoc) ([]cty.Type, cty.Type, error) {
	var inputs []cty.Type
	for i, b := range td.InputTypes {
		ty, err := decodeType(b)
		if err != nil {
			return nil, cty.NilType, fmt.Errorf("input type %d: %w", i, err)
		}
		inputs = append(inputs, ty)
	}
	output, err := decodeType(td.OutputType)
	if err != nil {
		return nil, cty.NilType, fmt.Errorf("output type: %w", err)
	}
	return inputs, output, nil
}
