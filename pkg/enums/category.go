package enums

import (
	"fmt"
	"path"
	"strings"
)

// Category is one of the fixed construction-type gallery buckets.
type Category string

const (
	CategoryBuilding Category = "Building Construction"
	CategoryHighway  Category = "Highway Construction"
	CategoryFlyover  Category = "Flyover Construction"
	CategoryBridge   Category = "Bridge Construction"
	CategoryRoad     Category = "Road Infrastructure"
)

// validCategories is also the listing order for the all-categories response.
var validCategories = []Category{
	CategoryHighway,
	CategoryFlyover,
	CategoryBridge,
	CategoryRoad,
	CategoryBuilding,
}

var categoryPartitions = map[Category]string{
	CategoryBuilding: "buildings",
	CategoryHighway:  "highways",
	CategoryFlyover:  "flyovers",
	CategoryBridge:   "bridges",
	CategoryRoad:     "roads",
}

// Categories returns the closed set of gallery categories.
func Categories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

// String returns the literal string for the category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the category is known.
func (c Category) IsValid() bool {
	_, ok := categoryPartitions[c]
	return ok
}

// Partition is the storage folder leaf and response key, e.g. "highways".
func (c Category) Partition() string {
	return categoryPartitions[c]
}

// Folder joins the configured folder root with the category partition.
func (c Category) Folder(root string) string {
	partition := c.Partition()
	if partition == "" {
		return ""
	}
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		return partition
	}
	return path.Join(root, partition)
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}

// CategoryForFolder resolves the category owning folder under root.
func CategoryForFolder(root, folder string) (Category, bool) {
	folder = strings.Trim(folder, "/")
	for _, candidate := range validCategories {
		if candidate.Folder(root) == folder {
			return candidate, true
		}
	}
	return "", false
}
