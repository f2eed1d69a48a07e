package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type TeleBot struct {
	bot     *tgbotapi.BotAPI
	chatId  int64
	updates tgbotapi.UpdatesChannel
	api     *localAPI
	lg      zerolog.Logger
}

type TeleBotConfig struct {
	Token  string
	ChatId int64
}

func NewTeleBot(conf *TeleBotConfig) (*TeleBot, error) {

	bot, err := tgbotapi.NewBotAPI(conf.Token) // memo. Go automatically dereferences struct pointers when accessing fields
	if err != nil {
		return nil, err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	return &TeleBot{
		bot:     bot,
		chatId:  conf.ChatId,
		updates: updates,
		lg:      zerolog.New(os.Stdout).With().Str("Module", "TeleBot").Timestamp().Logger(),
	}, nil
}

// Run relays every report on ch to the chat and answers commands through the local API. It blocks.
func (t *TeleBot) Run(ch chan string, port int, passkey string) {
	t.api = newLocalAPI(fmt.Sprintf("http://localhost:%d", port), passkey)
	t.SendMessage("LAUNCHED SUCCESSFULLY")

	go func() {
		t.communicate(ch)
	}()

	for msg := range ch {
		t.SendMessage(msg)
		t.lg.Info().Msg(msg)
	}
}

func (t TeleBot) SendMessage(msg string) {
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatId, msg)); err != nil {
		t.lg.Error().Err(err).Msg("Failed to send telegram message")
	}
}

func (t TeleBot) communicate(ch chan string) {

	for update := range t.updates {
		if update.Message == nil || update.Message.Chat == nil {
			continue
		}
		// memo. 등록된 채팅방 외의 명령은 무시
		if update.Message.Chat.ID != t.chatId {
			continue
		}

		for _, rtn := range t.api.answer(update.Message.Text) {
			ch <- rtn
		}
	}
}

const helpMessage = `
조회 API 목록
/today
/earnings?from={yyyy-mm-dd}&to={yyyy-mm-dd}&country={KR}
/dividends?from=&to=&country=
/indicators?from=&to=&country=&importance={1-3}
/companies/{id}
/companies/{id}/earnings
/companies/{id}/dividends
/events
`

type localAPI struct {
	base    string
	passkey string
	client  *http.Client
	now     func() time.Time
}

func newLocalAPI(base string, passkey string) *localAPI {
	return &localAPI{
		base:    base,
		passkey: passkey,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

// answer turns a chat command into reply messages. Non command text gets no reply.
func (a localAPI) answer(txt string) []string {
	txt = strings.TrimSpace(txt)
	if txt == "" || txt[0] != '/' {
		return nil
	}

	switch txt {
	case "/help":
		return []string{helpMessage}
	case "/today":
		msg, err := a.today()
		if err != nil {
			return []string{err.Error()}
		}
		return []string{msg}
	default:
		rtn, err := a.get(txt)
		if err != nil {
			return []string{err.Error()}
		}
		return []string{rtn}
	}
}

type indicatorBrief struct {
	Name       string `json:"name"`
	Country    string `json:"country"`
	Importance int    `json:"importance"`
	Actual     string `json:"actual"`
	Forecast   string `json:"forecast"`
}

func (a localAPI) today() (string, error) {

	day := a.now().UTC().Format("2006-01-02")
	body, err := a.fetch(fmt.Sprintf("/indicators?from=%s&to=%s", day, day))
	if err != nil {
		return "", err
	}

	var indicators []indicatorBrief
	if err := json.Unmarshal(body, &indicators); err != nil {
		return "", fmt.Errorf("지표 응답 파싱 시 오류 발생. %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 경제지표 %d건\n", day, len(indicators))
	for _, ind := range indicators {
		if ind.Importance < 3 {
			continue
		}
		fmt.Fprintf(&sb, "  [%s] %s (예상 %s / 실제 %s)\n", ind.Country, ind.Name, orDash(ind.Forecast), orDash(ind.Actual))
	}
	return sb.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (a localAPI) get(path string) (string, error) {

	body, err := a.fetch(path)
	if err != nil {
		return "", err
	}

	var jsonData interface{}
	if err := json.Unmarshal(body, &jsonData); err != nil {
		return string(body), nil
	}

	// memo. 단순 MarshalIndent 사용하면, &을 &로 바꿔버림.
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "\t")
	if err := encoder.Encode(jsonData); err != nil {
		return "", err
	}

	return buffer.String(), nil
}

func (a localAPI) fetch(path string) ([]byte, error) {

	req, err := http.NewRequest(http.MethodGet, a.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", a.passkey)
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%d %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
