package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/reqsync/internal/types"
)

// The on-disk format flattens cross-references to UUID strings so the
// graph round-trips through JSON without cycles. Load relinks pointers
// and restores canonical scalar types per attribute kind.

type fileModel struct {
	Modules []*fileModule `json:"modules"`
}

type fileModule struct {
	UUID         string             `json:"uuid"`
	Identifier   string             `json:"identifier,omitempty"`
	LongName     string             `json:"long_name"`
	TypeFolder   *fileTypeFolder    `json:"type_folder,omitempty"`
	Folders      []*fileFolder      `json:"folders,omitempty"`
	Requirements []*fileRequirement `json:"requirements,omitempty"`
}

type fileTypeFolder struct {
	UUID                string          `json:"uuid"`
	Identifier          string          `json:"identifier"`
	LongName            string          `json:"long_name"`
	DataTypeDefinitions []*fileDataType `json:"data_type_definitions,omitempty"`
	RequirementTypes    []*fileReqType  `json:"requirement_types,omitempty"`
}

type fileDataType struct {
	UUID     string           `json:"uuid"`
	LongName string           `json:"long_name"`
	Values   []*fileEnumValue `json:"values,omitempty"`
}

type fileEnumValue struct {
	UUID     string `json:"uuid"`
	LongName string `json:"long_name"`
}

type fileReqType struct {
	UUID                 string         `json:"uuid"`
	Identifier           string         `json:"identifier"`
	LongName             string         `json:"long_name"`
	AttributeDefinitions []*fileAttrDef `json:"attribute_definitions,omitempty"`
}

type fileAttrDef struct {
	UUID        string              `json:"uuid"`
	Identifier  string              `json:"identifier"`
	LongName    string              `json:"long_name"`
	Kind        types.AttributeKind `json:"kind"`
	DataType    string              `json:"data_type,omitempty"` // DataTypeDefinition UUID
	MultiValued bool                `json:"multi_valued,omitempty"`
}

type fileRequirement struct {
	UUID       string           `json:"uuid"`
	Identifier string           `json:"identifier"`
	LongName   string           `json:"long_name"`
	Text       string           `json:"text,omitempty"`
	Type       string           `json:"type,omitempty"` // RequirementType UUID
	Attributes []*fileAttrValue `json:"attributes,omitempty"`
}

type fileFolder struct {
	fileRequirement
	Folders      []*fileFolder      `json:"folders,omitempty"`
	Requirements []*fileRequirement `json:"requirements,omitempty"`
}

type fileAttrValue struct {
	UUID       string   `json:"uuid"`
	Definition string   `json:"definition"` // AttributeDefinition UUID
	Value      any      `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"` // EnumValue UUIDs
}

// Load reads a model file. A missing file yields an empty model so a
// first sync run can start from nothing.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path) // #nosec G304 - controlled path from caller
	if err != nil {
		if os.IsNotExist(err) {
			return &Model{}, nil
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var fm fileModel
	if err := json.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	m := &Model{}
	for _, fmod := range fm.Modules {
		mod, err := linkModule(fmod)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", fmod.UUID, err)
		}
		m.Modules = append(m.Modules, mod)
	}
	return m, nil
}

// Save writes the model atomically: temp file in the target directory,
// then rename over the destination.
func Save(path string, m *Model) error {
	fm := fileModel{}
	for _, mod := range m.Modules {
		fm.Modules = append(fm.Modules, unlinkModule(mod))
	}

	data, err := json.MarshalIndent(&fm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace model file: %w", err)
	}
	return nil
}

// linking

type linker struct {
	dataTypes  map[string]*DataTypeDefinition
	enumValues map[string]*EnumValue
	reqTypes   map[string]*RequirementType
	attrDefs   map[string]*AttributeDefinition
}

func linkModule(fmod *fileModule) (*Module, error) {
	mod := &Module{
		UUID:       fmod.UUID,
		Identifier: fmod.Identifier,
		LongName:   fmod.LongName,
	}
	lk := &linker{
		dataTypes:  make(map[string]*DataTypeDefinition),
		enumValues: make(map[string]*EnumValue),
		reqTypes:   make(map[string]*RequirementType),
		attrDefs:   make(map[string]*AttributeDefinition),
	}

	if fmod.TypeFolder != nil {
		tf := &RequirementTypeFolder{
			UUID:       fmod.TypeFolder.UUID,
			Identifier: fmod.TypeFolder.Identifier,
			LongName:   fmod.TypeFolder.LongName,
		}
		for _, fd := range fmod.TypeFolder.DataTypeDefinitions {
			d := &DataTypeDefinition{UUID: fd.UUID, LongName: fd.LongName}
			for _, fv := range fd.Values {
				v := &EnumValue{UUID: fv.UUID, LongName: fv.LongName}
				d.Values = append(d.Values, v)
				lk.enumValues[v.UUID] = v
			}
			tf.DataTypeDefinitions = append(tf.DataTypeDefinitions, d)
			lk.dataTypes[d.UUID] = d
		}
		for _, fr := range fmod.TypeFolder.RequirementTypes {
			rt := &RequirementType{UUID: fr.UUID, Identifier: fr.Identifier, LongName: fr.LongName}
			for _, fa := range fr.AttributeDefinitions {
				ad := &AttributeDefinition{
					UUID:        fa.UUID,
					Identifier:  fa.Identifier,
					LongName:    fa.LongName,
					Kind:        fa.Kind,
					MultiValued: fa.MultiValued,
				}
				if fa.DataType != "" {
					ad.DataType = lk.dataTypes[fa.DataType]
					if ad.DataType == nil {
						return nil, fmt.Errorf("attribute definition %s: unknown data type %s", fa.Identifier, fa.DataType)
					}
				}
				rt.AttributeDefinitions = append(rt.AttributeDefinitions, ad)
				lk.attrDefs[ad.UUID] = ad
			}
			tf.RequirementTypes = append(tf.RequirementTypes, rt)
			lk.reqTypes[rt.UUID] = rt
		}
		mod.TypeFolder = tf
	}

	for _, ff := range fmod.Folders {
		folder, err := lk.linkFolder(ff, mod.UUID)
		if err != nil {
			return nil, err
		}
		mod.Folders = append(mod.Folders, folder)
	}
	for _, fr := range fmod.Requirements {
		req, err := lk.linkRequirement(fr, mod.UUID)
		if err != nil {
			return nil, err
		}
		mod.Requirements = append(mod.Requirements, req)
	}
	return mod, nil
}

func (lk *linker) linkFolder(ff *fileFolder, parent string) (*Folder, error) {
	req, err := lk.linkRequirement(&ff.fileRequirement, parent)
	if err != nil {
		return nil, err
	}
	folder := &Folder{Requirement: *req}
	for _, child := range ff.Folders {
		cf, err := lk.linkFolder(child, folder.UUID)
		if err != nil {
			return nil, err
		}
		folder.Folders = append(folder.Folders, cf)
	}
	for _, child := range ff.Requirements {
		cr, err := lk.linkRequirement(child, folder.UUID)
		if err != nil {
			return nil, err
		}
		folder.Requirements = append(folder.Requirements, cr)
	}
	return folder, nil
}

func (lk *linker) linkRequirement(fr *fileRequirement, parent string) (*Requirement, error) {
	req := &Requirement{
		UUID:       fr.UUID,
		Identifier: fr.Identifier,
		LongName:   fr.LongName,
		Text:       fr.Text,
		Parent:     parent,
	}
	if fr.Type != "" {
		req.Type = lk.reqTypes[fr.Type]
		if req.Type == nil {
			return nil, fmt.Errorf("requirement %s: unknown requirement type %s", fr.Identifier, fr.Type)
		}
	}
	for _, fa := range fr.Attributes {
		def := lk.attrDefs[fa.Definition]
		if def == nil {
			return nil, fmt.Errorf("requirement %s: unknown attribute definition %s", fr.Identifier, fa.Definition)
		}
		av := &AttributeValue{UUID: fa.UUID, Definition: def}
		if def.Enum() {
			for _, vid := range fa.Values {
				v := lk.enumValues[vid]
				if v == nil {
					return nil, fmt.Errorf("requirement %s: unknown enum value %s", fr.Identifier, vid)
				}
				av.Values = append(av.Values, v)
			}
		} else {
			value, err := decodeScalar(def.Kind, fa.Value)
			if err != nil {
				return nil, fmt.Errorf("requirement %s, attribute %s: %w", fr.Identifier, def.LongName, err)
			}
			av.Value = value
		}
		req.Attributes = append(req.Attributes, av)
	}
	return req, nil
}

// decodeScalar restores the canonical in-memory type for a stored
// scalar: JSON numbers arrive as float64 and dates as RFC 3339 strings.
func decodeScalar(kind types.AttributeKind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case types.KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case types.KindInteger:
		switch v := raw.(type) {
		case float64:
			return int64(v), nil
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		}
		return nil, fmt.Errorf("expected integer, got %T", raw)
	case types.KindFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		}
		return nil, fmt.Errorf("expected float, got %T", raw)
	case types.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", raw)
		}
		return b, nil
	case types.KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected RFC 3339 date string, got %T", raw)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown attribute kind %q", kind)
}

// encodeScalar is the inverse of decodeScalar.
func encodeScalar(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return value
}

// unlinking

func unlinkModule(mod *Module) *fileModule {
	fmod := &fileModule{
		UUID:       mod.UUID,
		Identifier: mod.Identifier,
		LongName:   mod.LongName,
	}
	if tf := mod.TypeFolder; tf != nil {
		ftf := &fileTypeFolder{UUID: tf.UUID, Identifier: tf.Identifier, LongName: tf.LongName}
		for _, d := range tf.DataTypeDefinitions {
			fd := &fileDataType{UUID: d.UUID, LongName: d.LongName}
			for _, v := range d.Values {
				fd.Values = append(fd.Values, &fileEnumValue{UUID: v.UUID, LongName: v.LongName})
			}
			ftf.DataTypeDefinitions = append(ftf.DataTypeDefinitions, fd)
		}
		for _, rt := range tf.RequirementTypes {
			frt := &fileReqType{UUID: rt.UUID, Identifier: rt.Identifier, LongName: rt.LongName}
			for _, ad := range rt.AttributeDefinitions {
				fad := &fileAttrDef{
					UUID:        ad.UUID,
					Identifier:  ad.Identifier,
					LongName:    ad.LongName,
					Kind:        ad.Kind,
					MultiValued: ad.MultiValued,
				}
				if ad.DataType != nil {
					fad.DataType = ad.DataType.UUID
				}
				frt.AttributeDefinitions = append(frt.AttributeDefinitions, fad)
			}
			ftf.RequirementTypes = append(ftf.RequirementTypes, frt)
		}
		fmod.TypeFolder = ftf
	}
	for _, folder := range mod.Folders {
		fmod.Folders = append(fmod.Folders, unlinkFolder(folder))
	}
	for _, req := range mod.Requirements {
		fmod.Requirements = append(fmod.Requirements, unlinkRequirement(req))
	}
	return fmod
}

func unlinkFolder(folder *Folder) *fileFolder {
	ff := &fileFolder{fileRequirement: *unlinkRequirement(&folder.Requirement)}
	for _, child := range folder.Folders {
		ff.Folders = append(ff.Folders, unlinkFolder(child))
	}
	for _, child := range folder.Requirements {
		ff.Requirements = append(ff.Requirements, unlinkRequirement(child))
	}
	return ff
}

func unlinkRequirement(req *Requirement) *fileRequirement {
	fr := &fileRequirement{
		UUID:       req.UUID,
		Identifier: req.Identifier,
		LongName:   req.LongName,
		Text:       req.Text,
	}
	if req.Type != nil {
		fr.Type = req.Type.UUID
	}
	for _, av := range req.Attributes {
		fa := &fileAttrValue{UUID: av.UUID, Definition: av.Definition.UUID}
		if av.Definition.Enum() {
			for _, v := range av.Values {
				fa.Values = append(fa.Values, v.UUID)
			}
		} else {
			fa.Value = encodeScalar(av.Value)
		}
		fr.Attributes = append(fr.Attributes, fa)
	}
	return fr
}
