package config

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultFile is read from the working directory when no config is given
const DefaultFile = "pmbridge.hcl"

// Parser handles parsing HCL configuration files
type Parser struct {
	parser    *hclparse.Parser
	variables map[string]cty.Value
	baseDir   string // directory containing the HCL file
}

// NewParser creates a new HCL parser
func NewParser() *Parser {
	return &Parser{
		parser:    hclparse.NewParser(),
		variables: make(map[string]cty.Value),
	}
}

// SetVariable sets a variable value for use during parsing
func (p *Parser) SetVariable(name string, value string) {
	p.variables[name] = cty.StringVal(value)
}

// GetBaseDir returns the base directory for the parser
func (p *Parser) GetBaseDir() string {
	return p.baseDir
}

// ParseFile parses a single HCL file
func (p *Parser) ParseFile(filename string) (*Config, hcl.Diagnostics) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to read file",
			Detail:   err.Error(),
		}}
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to resolve file path",
			Detail:   err.Error(),
		}}
	}
	p.baseDir = filepath.Dir(absPath)

	return p.ParseSource(src, filename)
}

// ParseSource parses HCL source held in memory
func (p *Parser) ParseSource(src []byte, filename string) (*Config, hcl.Diagnostics) {
	file, diags := p.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, p.buildEvalContext(), &config)
	if diags.HasErrors() {
		return nil, diags
	}
	return &config, nil
}

// buildEvalContext creates the evaluation context for HCL expressions
func (p *Parser) buildEvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(p.variables))
	for k, v := range p.variables {
		vars[k] = v
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vars),
		},
		Functions: standardFunctions(p.baseDir),
	}
}
