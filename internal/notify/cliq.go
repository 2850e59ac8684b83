package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Cliq posts formatted status messages to a Zoho Cliq channel webhook.
// A zero webhook URL disables the notifier: every call becomes a no-op.
type Cliq struct {
	webhookURL string
	client     *http.Client
}

func NewCliq(webhookURL string) *Cliq {
	return &Cliq{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type card struct {
	Title string `json:"title"`
	Theme string `json:"theme,omitempty"`
}

type payload struct {
	Text string `json:"text"`
	Card *card  `json:"card,omitempty"`
}

// Send posts a message, optionally decorated with a titled card. Title and
// color may be empty.
func (c *Cliq) Send(message, title, color string) error {
	if c.webhookURL == "" {
		return nil
	}
	p := payload{Text: message}
	if title != "" {
		p.Card = &card{Title: title, Theme: color}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal cliq payload")
	}
	resp, err := c.client.Post(c.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "post to cliq webhook")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("cliq webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Cliq) NotifySuccess(message string, details map[string]string) error {
	text := fmt.Sprintf("✅ **SUCESSO**: %s\n\n%s⏰ Concluído em: %s",
		message, formatDetails(details), time.Now().Format("2006-01-02 15:04:05"))
	return c.Send(text, "✅ Operação Concluída", "#00ff00")
}

func (c *Cliq) NotifyError(message string, details map[string]string) error {
	text := fmt.Sprintf("🚨 **ERRO**: %s\n\n%s⏰ Ocorrido em: %s",
		message, formatDetails(details), time.Now().Format("2006-01-02 15:04:05"))
	return c.Send(text, "❌ Erro Detectado", "#ff0000")
}

func (c *Cliq) NotifyAlert(message string, details map[string]string) error {
	text := fmt.Sprintf("⚠️ **ALERTA**: %s\n\n%s⏰ Gerado em: %s",
		message, formatDetails(details), time.Now().Format("2006-01-02 15:04:05"))
	return c.Send(text, "⚠️ Alerta", "#ffa500")
}

func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "**Detalhes:**\n"
	for _, k := range keys {
		out += fmt.Sprintf("- %s: %s\n", k, details[k])
	}
	return out + "\n"
}
