package catalog

// Default returns the catalog of the CanOverhead site this tool was first
// written for. sitepub init uses it to seed a configuration file.
func Default() []Entry {
	return []Entry{
		{Name: "changelog", Kind: KindDocument, Source: "CHANGELOG.md"},
		{Name: "license", Kind: KindDocument, Source: "LICENSE.md"},
		{Name: "readme", Kind: KindDocument, Source: "README.md"},
		{Name: "roadmap", Kind: KindDocument, Source: "ROADMAP.md"},
		{Name: "index", Kind: KindMarkup, Source: "index.html", Primary: true},
		{Name: "style", Kind: KindStyle, Source: "style.css"},
		{Name: "canoverhead", Kind: KindScript, Source: "CanOverhead.js"},
		{Name: "adapter", Kind: KindScript, Source: "HtmlToLibAdapter.js"},
		{Name: "tests", Kind: KindScript, Source: "TestCanOverhead.js"},
	}
}
