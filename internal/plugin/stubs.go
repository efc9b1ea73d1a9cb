package plugin

// Stubs are the members of a bundler context that only make sense with a
// build graph. The dev server has none, so every member is inert: calling
// one is legal and returns an empty result.
type Stubs struct{}

type EmittedFile struct {
	Type     string
	Name     string
	FileName string
	ID       string
	Source   []byte
}

type ModuleInfo struct {
	ID                     string
	ImportedIDs            []string
	Importers              []string
	DynamicallyImportedIDs []string
	DynamicImporters       []string
	IsEntry                bool
	IsExternal             bool
	HasModuleSideEffects   bool
}

func (Stubs) EmitAsset(name string, source []byte) string { return "" }
func (Stubs) EmitChunk(id string) string { return "" }
func (Stubs) EmitFile(file EmittedFile) string { return "" }
func (Stubs) GetAssetFileName(referenceID string) string { return "" }
func (Stubs) GetChunkFileName(referenceID string) string { return "" }
func (Stubs) GetFileName(referenceID string) string { return "" }
func (Stubs) GetModuleIDs() []string { return []string{} }
func (Stubs) ModuleIDs() []string { return []string{} }
func (Stubs) IsExternal(id, importer string, resolved bool) bool { return false }
func (Stubs) SetAssetSource(referenceID string, source []byte) {}

// GetModuleInfo returns a record with no graph relations, since module
// membership can't be known outside a full build.
func (Stubs) GetModuleInfo(id string) *ModuleInfo {
	return &ModuleInfo{
		ID:                     id,
		ImportedIDs:            []string{},
		Importers:              []string{},
		DynamicallyImportedIDs: []string{},
		DynamicImporters:       []string{},
	}
}
