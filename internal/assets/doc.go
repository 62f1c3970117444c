// Package assets embeds the stylesheet and HTML templates used when
// producing the intermediate HTML document.
//
// Layout of the embedded filesystem:
//
//	styles/
//	└── mermaid-styles.css   # diagram layout and print rules
//	templates/
//	└── document.html        # standalone page wrapper (goldmark engine)
//
// The stylesheet is written next to the generated HTML files once per
// output directory, so every page links the same file.
package assets
