package index

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

// GroupDef names a listing section and the pages that belong to it.
type GroupDef struct {
	Name  string   `yaml:"name"`
	Title string   `yaml:"title,omitempty"`
	Pages []string `yaml:"pages,omitempty"`
}

func (d GroupDef) displayTitle() string {
	if d.Title != "" {
		return d.Title
	}

	return DisplayTitle(d.Name)
}

// groupsFile is the on-disk layout read by LoadGroupsFile.
type groupsFile struct {
	Groups []GroupDef `yaml:"groups"`
}

// ClassifierFromGroups assigns each page to the first group that lists it
// by file name. Pages listed nowhere are uncategorized.
func ClassifierFromGroups(defs []GroupDef) Classifier {
	membership := make(map[string]string)
	for _, def := range defs {
		for _, page := range def.Pages {
			if _, taken := membership[page]; !taken {
				membership[page] = def.Name
			}
		}
	}

	return func(fileName string) string {
		return membership[fileName]
	}
}

// LoadGroupsFile reads group definitions from a YAML file of the form
//
//	groups:
//	  - name: live
//	    title: Ready
//	    pages: [button.html]
func LoadGroupsFile(path string) ([]GroupDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pwerrors.NewIOError(pwerrors.CodeReadFile, "cannot read groups file", err).WithPath(path)
	}

	var file groupsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, pwerrors.Wrap(err, pwerrors.ErrorTypeConfig, pwerrors.CodeInvalidConfig,
			"invalid groups file").WithPath(path)
	}

	seen := make(map[string]bool, len(file.Groups))
	for i, def := range file.Groups {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, pwerrors.NewConfigError(pwerrors.CodeInvalidConfig,
				fmt.Sprintf("group %d has no name", i)).WithPath(path)
		}
		if seen[name] {
			return nil, pwerrors.NewConfigError(pwerrors.CodeInvalidConfig,
				fmt.Sprintf("duplicate group %q", name)).WithPath(path)
		}
		seen[name] = true
		file.Groups[i].Name = name
	}

	return file.Groups, nil
}
