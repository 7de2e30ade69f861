package index

// extLanguages maps file extensions to display languages. Adding a language
// is a data change, not a structural one.
var extLanguages = map[string]string{
	".go":     "Go",
	".rs":     "Rust",
	".py":     "Python",
	".rb":     "Ruby",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".mjs":    "JavaScript",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".java":   "Java",
	".kt":     "Kotlin",
	".swift":  "Swift",
	".c":      "C",
	".h":      "C",
	".cc":     "C++",
	".cpp":    "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".php":    "PHP",
	".scala":  "Scala",
	".clj":    "Clojure",
	".ex":     "Elixir",
	".exs":    "Elixir",
	".erl":    "Erlang",
	".hs":     "Haskell",
	".lua":    "Lua",
	".zig":    "Zig",
	".sh":     "Shell",
	".bash":   "Shell",
	".sql":    "SQL",
	".tf":     "Terraform",
	".proto":  "Protobuf",
	".vue":    "Vue",
	".svelte": "Svelte",
	".dart":   "Dart",
	".ml":     "OCaml",
	".nim":    "Nim",
	".r":      "R",
}

// skipDirs are directories never descended into during metadata extraction.
// These contain generated code, dependencies, or version control data.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
}

// LanguageForExt returns the display language for a file extension, if known.
func LanguageForExt(ext string) (string, bool) {
	lang, ok := extLanguages[ext]
	return lang, ok
}
