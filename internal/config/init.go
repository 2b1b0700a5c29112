package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const starterConfig = `# ardoc site configuration
title: "Ard"
description: "Documentation for the Ard programming language"
base_url: "http://localhost:1414"

social:
  - icon: github
    label: GitHub
    href: https://github.com/ardlang/ard

sidebar:
  - label: Getting Started
    items:
      - label: Introduction
        slug: getting-started/introduction
      - label: Installation
        slug: getting-started/installation
  - label: Language
    items:
      - slug: language/values

content:
  dir: content

output:
  directory: ./site
  clean: true

serve:
  port: 1414
  # rebuild_interval: 15m

# linkcheck:
#   enabled: true
#   nats_url: nats://localhost:4222
`

var starterPages = map[string]string{
	"getting-started/introduction.md": `---
title: Introduction
description: What Ard is and why it exists
---

# Introduction

Ard is a small, statically typed language with value semantics.

` + "```ard" + `
fn main() {
  print("hello, ard")
}
` + "```" + `
`,
	"getting-started/installation.md": `---
title: Installation
description: Installing the Ard toolchain
---

# Installation

Download a release or build from source. See the
[introduction](introduction) for an overview first.
`,
	"language/values.md": `---
title: Values
description: Value semantics in Ard
---

# Values

Every Ard value is immutable unless declared with ` + "`var`" + `.
`,
}

// Init writes a starter configuration file and, when the content directory
// does not exist yet, a small starter content tree.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil { // #nosec G306 -- site config is not sensitive
		return fmt.Errorf("write config file: %w", err)
	}

	contentDir := "content"
	if _, err := os.Stat(contentDir); err == nil {
		// Existing content tree: leave it alone.
		return nil
	}

	for rel, body := range starterPages {
		path := filepath.Join(contentDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create content directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil { // #nosec G306 -- starter docs content
			return fmt.Errorf("write starter page %s: %w", rel, err)
		}
	}
	return nil
}
