package email

import (
	"bytes"
	"html/template"
)

type tierAlertData struct {
	ConsumerName  string
	ConsumerPhone string
	Tier          string
	Score         int
}

var tierAlertTemplate = template.Must(template.New("tier_alert").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a1a;">
  <h2>Lead is opgewarmd</h2>
  <p>Het gesprek met <strong>{{.ConsumerName}}</strong> ({{.ConsumerPhone}}) is verplaatst naar <strong>{{.Tier}}</strong> met score <strong>{{.Score}}</strong>.</p>
  <p>Neem snel contact op om het momentum vast te houden.</p>
</body>
</html>
`))

func renderTierAlert(data tierAlertData) (string, error) {
	var buf bytes.Buffer
	if err := tierAlertTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
