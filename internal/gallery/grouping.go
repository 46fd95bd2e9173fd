package gallery

import "strings"

// GroupByTitle partitions images into projects keyed by trimmed title, in
// first-seen order. Blank titles collect under "Untitled". A project's
// description and thumbnail come from its first image.
func GroupByTitle(images []GalleryImage) []Project {
	projects := []Project{}
	index := map[string]int{}

	for _, img := range images {
		name := strings.TrimSpace(img.Title)
		if name == "" {
			name = untitledProject
		}
		pos, ok := index[name]
		if !ok {
			index[name] = len(projects)
			projects = append(projects, Project{
				Name:        name,
				Description: img.Description,
				Thumbnail:   img.URL,
				Images:      []GalleryImage{img},
			})
			continue
		}
		projects[pos].Images = append(projects[pos].Images, img)
	}
	return projects
}

// Flatten concatenates project images in project order.
func Flatten(projects []Project) []GalleryImage {
	out := []GalleryImage{}
	for _, p := range projects {
		out = append(out, p.Images...)
	}
	return out
}
