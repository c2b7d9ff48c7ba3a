package reference

// Curriculum represents a top-level exam syllabus grouping loaded from YAML.
type Curriculum struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Subjects []Subject `yaml:"subjects"`
}

// Subject represents a curriculum-scoped course identified by a code.
// The value sets list every topic, year, paper type and season known to
// exist for the subject; filters are validated against them.
type Subject struct {
	Code       string   `yaml:"code"`
	Name       string   `yaml:"name"`
	Topics     []string `yaml:"topics"`
	Years      []int    `yaml:"years"`
	PaperTypes []int    `yaml:"paper_types"`
	Seasons    []string `yaml:"seasons"`
}
