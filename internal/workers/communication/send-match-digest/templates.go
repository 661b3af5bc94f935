// internal/workers/communication/send-match-digest/templates.go
package sendmatchdigest

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"matchmaking-workers/internal/matching"
)

const digestSubject = "Your top matches this week"

const textDigest = `Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},

Here are your top {{len .Matches}} matches:
{{range .Matches}}
- {{.Score}}% match{{if .Age}}, {{.Age}}{{end}}{{if .Location}}, {{.Location}}{{end}}{{if .Reasons}}
  {{join .Reasons "; "}}{{end}}
{{end}}
Open the app to view full profiles.
`

const htmlDigest = `<p>Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
<p>Here are your top {{len .Matches}} matches:</p>
<ul>{{range .Matches}}
<li><strong>{{.Score}}% match</strong>{{if .Age}}, {{.Age}}{{end}}{{if .Location}}, {{.Location}}{{end}}{{if .Reasons}}<br>{{join .Reasons "; "}}{{end}}</li>{{end}}
</ul>
<p>Open the app to view full profiles.</p>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("digest.txt").
		Funcs(texttemplate.FuncMap{"join": strings.Join}).Parse(textDigest))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("digest.html").
		Funcs(htmltemplate.FuncMap{"join": strings.Join}).Parse(htmlDigest))
)

type digestView struct {
	FirstName string
	Matches   []matchView
}

type matchView struct {
	Score    int
	Age      int
	Location string
	Reasons  []string
}

func newDigestView(firstName string, matches []matching.ScoredCandidate) digestView {
	v := digestView{FirstName: firstName, Matches: make([]matchView, 0, len(matches))}
	for _, m := range matches {
		v.Matches = append(v.Matches, matchView{
			Score:    m.MatchScore,
			Age:      m.Profile.Age,
			Location: m.Profile.Location,
			Reasons:  m.MatchReasons,
		})
	}
	return v
}

func renderDigest(v digestView) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textTmpl.Execute(&tb, v); err != nil {
		return "", "", fmt.Errorf("render text digest: %w", err)
	}
	if err := htmlTmpl.Execute(&hb, v); err != nil {
		return "", "", fmt.Errorf("render html digest: %w", err)
	}
	return tb.String(), hb.String(), nil
}

func smsMessage(best, count int) string {
	if count <= 1 {
		return fmt.Sprintf("You have a %d%% match waiting. Open the app to say hello.", best)
	}
	return fmt.Sprintf("You have a %d%% match waiting, plus %d more suggestions. Open the app to say hello.", best, count-1)
}
