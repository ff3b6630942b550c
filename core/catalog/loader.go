package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// catalogFile is the decoded form of a catalog document:
//
//	component "cpu-13700k" {
//	  category = "cpu"
//	  name     = "Intel Core i7-13700K"
//	  price    = 409.99
//	  specs {
//	    socket = "LGA1700"
//	    tdp    = 125
//	  }
//	}
type catalogFile struct {
	Components []componentBlock `hcl:"component,block"`
}

type componentBlock struct {
	ID       string      `hcl:"id,label"`
	Category string      `hcl:"category"`
	Name     string      `hcl:"name"`
	Price    string      `hcl:"price"`
	Image    string      `hcl:"image,optional"`
	Specs    *specsBlock `hcl:"specs,block"`
}

type specsBlock struct {
	Socket           string `hcl:"socket,optional"`
	MemoryType       string `hcl:"memory_type,optional"`
	TDP              int    `hcl:"tdp,optional"`
	Wattage          int    `hcl:"wattage,optional"`
	FormFactor       string `hcl:"form_factor,optional"`
	Brand            string `hcl:"brand,optional"`
	PerformanceScore int    `hcl:"performance_score,optional"`
}

// LoadFile reads an HCL catalog (.hcl) or its JSON equivalent (.json)
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Catalog("failed to read catalog file", err)
	}
	return Parse(src, filepath.Base(path))
}

// Parse decodes a catalog document; the filename extension picks the syntax
func Parse(src []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()

	var cf catalogFile
	if strings.HasSuffix(filename, ".json") {
		file, diags := parser.ParseJSON(src, filename)
		if diags.HasErrors() {
			return nil, errors.Parsing("invalid catalog JSON", diags)
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &cf); diags.HasErrors() {
			return nil, errors.Parsing("invalid catalog document", diags)
		}
	} else {
		file, diags := parser.ParseHCL(src, filename)
		if diags.HasErrors() {
			return nil, errors.Parsing("invalid catalog HCL", diags)
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &cf); diags.HasErrors() {
			return nil, errors.Parsing("invalid catalog document", diags)
		}
	}

	c := NewCatalog()
	for _, block := range cf.Components {
		comp, err := block.toComponent()
		if err != nil {
			return nil, err
		}
		if err := c.Register(comp); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (b componentBlock) toComponent() (types.Component, error) {
	category, ok := types.ParseCategory(b.Category)
	if !ok {
		return types.Component{}, errors.Newf(errors.TypeCatalog, "%s: unknown category %q", b.ID, b.Category)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(b.Price))
	if err != nil {
		return types.Component{}, errors.Parsing(fmt.Sprintf("%s: invalid price %q", b.ID, b.Price), err)
	}

	comp := types.Component{
		ID:       b.ID,
		Category: category,
		Name:     b.Name,
		Price:    price,
		Image:    b.Image,
	}
	if b.Specs != nil {
		comp.Specs = types.Specs{
			Socket:           b.Specs.Socket,
			MemoryType:       b.Specs.MemoryType,
			TDP:              b.Specs.TDP,
			Wattage:          b.Specs.Wattage,
			FormFactor:       b.Specs.FormFactor,
			Brand:            b.Specs.Brand,
			PerformanceScore: b.Specs.PerformanceScore,
		}
	}
	return comp, nil
}
