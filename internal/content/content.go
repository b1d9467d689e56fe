// Package content holds the static data behind the site's informational
// pages. The frontend renders these; the backend only serves them as JSON.
package content

// Home is the landing page content.
type Home struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	AvatarURL string   `json:"avatar_url"`
	Taglines  []string `json:"taglines"`
}

// Project is a single portfolio entry.
type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
	URL         string   `json:"url"`
}

// ContactChannel is one way of reaching the site owner.
type ContactChannel struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SystemSpecs describes the hardware on the system page.
type SystemSpecs struct {
	CPU         ComponentSpec `json:"cpu"`
	GPU         ComponentSpec `json:"gpu"`
	RAM         ComponentSpec `json:"ram"`
	Storage     ComponentSpec `json:"storage"`
	Peripherals ComponentSpec `json:"peripherals"`
}

// ComponentSpec is a titled list of detail lines for one hardware component.
type ComponentSpec struct {
	Name    string   `json:"name"`
	Details []string `json:"details"`
}

var home = Home{
	Name:      "Keiran",
	Title:     "Writing software, one error at a time",
	AvatarURL: "/profile.png",
	Taglines: []string{
		"Hyprland, the one true window manager",
		"Neovim is genuinely my favourite piece of software in the world",
		"Embracing the chaos of concurrent programming",
		"Git push --force",
		"404: Sleep not found",
		"Tabs vs. Spaces: The eternal debate",
		"Recursion: See 'Recursion'",
		"There's no place like 127.0.0.1",
	},
}

var projects = []Project{
	{
		Title:       "AnonHost",
		Description: "A beautiful (and free) image host built with Next.js and TypeScript.",
		Tech:        []string{"Next.js", "TypeScript"},
		URL:         "https://github.com/keiranhall/anonhost",
	},
	{
		Title:       "uwurs",
		Description: "A rust library dedicated to providing text transformation for weebs",
		Tech:        []string{"Rust"},
		URL:         "https://github.com/keiranhall/uwurs",
	},
	{
		Title:       "Archium",
		Description: "A fork of the Archie project, aiming to provide a faster pacman wrapper",
		Tech:        []string{"C"},
		URL:         "https://github.com/keiranhall/archium",
	},
}

var contacts = []ContactChannel{
	{
		Name:        "Email",
		Description: "I don't check emails often but I'm guaranteed to see it eventually",
		URL:         "mailto:hi@keiran.live",
	},
	{
		Name:        "GitHub",
		Description: "Check out my open source contributions and projects",
		URL:         "https://github.com/keiranhall",
	},
	{
		Name:        "YouTube",
		Description: "I will post here soon but there's nothing interesting there yet",
		URL:         "https://youtube.com/@keiranhall",
	},
	{
		Name:        "Discord",
		Description: "Add me on discord because I almost always have it open",
		URL:         "https://discord.com/users/keiran",
	},
	{
		Name:        "E-Z Bio",
		Description: "A pretty personal bio page with all my links and stuff",
		URL:         "https://e-z.bio/keiran",
	},
}

var system = SystemSpecs{
	CPU: ComponentSpec{
		Name:    "Intel Celeron N4120",
		Details: []string{"4 Cores, 4 Threads", "2.60 GHz Clock Speed"},
	},
	GPU: ComponentSpec{
		Name:    "Intel UHD Graphics 600",
		Details: []string{"8GB VRAM", "1366x768 @ 60Hz"},
	},
	RAM: ComponentSpec{
		Name:    "8GB DDR4",
		Details: []string{"2400 MT/s", "2x4GB Dual Channel"},
	},
	Storage: ComponentSpec{
		Name:    "120GB SSD",
		Details: []string{"1TB HDD 2.5\"", "2TB HDD 3.5\""},
	},
	Peripherals: ComponentSpec{
		Name:    "Desk setup",
		Details: []string{"MX Mechanical Mini", "Logitech G Pro X Superlight"},
	},
}

// pages maps page names to their content.
var pages = map[string]any{
	"home":     home,
	"projects": projects,
	"contact":  contacts,
	"system":   system,
}

// Page returns the content for a named page, reporting whether it exists.
func Page(name string) (any, bool) {
	p, ok := pages[name]
	return p, ok
}

// PageNames lists the pages the API can serve.
func PageNames() []string {
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	return names
}
