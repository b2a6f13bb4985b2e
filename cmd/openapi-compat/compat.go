package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// operation is the part of a swagger operation that clients depend on.
type operation struct {
	Responses map[string]struct{}
	// Required holds "in:name" for every required parameter.
	Required map[string]struct{}
	Secured  bool
}

type apiDoc struct {
	BasePath string
	Paths    map[string]map[string]operation
}

type rawParameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type rawOperation struct {
	Parameters []rawParameter        `yaml:"parameters"`
	Responses  map[string]yaml.Node  `yaml:"responses"`
	Security   []map[string][]string `yaml:"security"`
}

type rawDoc struct {
	BasePath string                          `yaml:"basePath"`
	Paths    map[string]map[string]yaml.Node `yaml:"paths"`
}

func loadDoc(path string) (apiDoc, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return apiDoc{}, err
	}
	return parseDoc(raw)
}

// parseDoc reads a swagger 2.0 document. JSON input works too since JSON is valid YAML.
func parseDoc(raw []byte) (apiDoc, error) {
	var doc rawDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return apiDoc{}, err
	}
	if doc.Paths == nil {
		return apiDoc{}, errors.New("missing top-level paths field")
	}

	out := apiDoc{BasePath: doc.BasePath, Paths: make(map[string]map[string]operation)}
	for pathKey, entry := range doc.Paths {
		ops := make(map[string]operation)
		for methodKey, node := range entry {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, ok := supportedMethods[method]; !ok {
				continue
			}

			var op rawOperation
			if err := node.Decode(&op); err != nil {
				return apiDoc{}, fmt.Errorf("%s %s: %w", strings.ToUpper(method), pathKey, err)
			}

			parsed := operation{
				Responses: make(map[string]struct{}, len(op.Responses)),
				Required:  make(map[string]struct{}),
				Secured:   len(op.Security) > 0,
			}
			for code := range op.Responses {
				if c := strings.ToLower(strings.TrimSpace(code)); c != "" {
					parsed.Responses[c] = struct{}{}
				}
			}
			for _, p := range op.Parameters {
				if p.Required {
					parsed.Required[p.In+":"+p.Name] = struct{}{}
				}
			}
			ops[method] = parsed
		}
		if len(ops) > 0 {
			out.Paths[pathKey] = ops
		}
	}
	return out, nil
}

// compare lists the changes in revision that break clients of base.
func compare(base, revision apiDoc) []string {
	var issues []string

	if base.BasePath != revision.BasePath {
		issues = append(issues, fmt.Sprintf("changed basePath: %q -> %q", base.BasePath, revision.BasePath))
	}

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			name := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s", name))
				continue
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", name, strings.ToUpper(code)))
				}
			}
			for param := range revOp.Required {
				if _, ok := baseOp.Required[param]; !ok {
					issues = append(issues, fmt.Sprintf("new required parameter: %s -> %s", name, param))
				}
			}
			if revOp.Secured && !baseOp.Secured {
				issues = append(issues, fmt.Sprintf("now requires authorization: %s", name))
			}
		}
	}

	sort.Strings(issues)
	return issues
}
