package window

import "shellhost/internal/settings"

// Rule is a named presentation rule injected into a surface's page.
type Rule struct {
	Name string
	CSS  string
}

// Rule names understood by surfaces.
const (
	RuleMenuStyle      = "menu-style"
	RuleHideScrollbars = "hide-scrollbars"
)

const menuStyleCSS = `.menu-custom {
  background: #ffffff !important;
  border: 1px solid #e0e0e0 !important;
  border-radius: 6px !important;
  box-shadow: 0 2px 12px rgba(0, 0, 0, 0.1) !important;
  padding: 5px 0 !important;
}
.menuitem-custom {
  padding: 6px 24px !important;
  color: #333333 !important;
  font-size: 13px !important;
}
.menuitem-custom:hover {
  background-color: #f5f5f5 !important;
  color: #1a73e8 !important;
}
.separator-custom {
  margin: 5px 0 !important;
  border-bottom: 1px solid #e0e0e0 !important;
}
.menu-custom::-webkit-scrollbar {
  width: 6px !important;
  height: 6px !important;
}`

const hideScrollbarsCSS = `*::-webkit-scrollbar { display: none !important; }`

// RulesFor derives the presentation rules of a surface from settings.
func RulesFor(s settings.Settings) []Rule {
	rules := []Rule{{Name: RuleMenuStyle, CSS: menuStyleCSS}}
	if s.HideScrollBar {
		rules = append(rules, Rule{Name: RuleHideScrollbars, CSS: hideScrollbarsCSS})
	}
	return rules
}
