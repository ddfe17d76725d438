package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evanblokender/Youtube-vm/internal/app/events"
	"github.com/evanblokender/Youtube-vm/internal/app/queue"
	"github.com/evanblokender/Youtube-vm/internal/domain"
	"github.com/evanblokender/Youtube-vm/internal/usecase/admission"
	"github.com/evanblokender/Youtube-vm/internal/usecase/commands"
	"github.com/evanblokender/Youtube-vm/internal/usecase/permissions"
	"github.com/evanblokender/Youtube-vm/internal/usecase/vote"
)

// Config agrupa los knobs del orquestador.
type Config struct {
	VoteDuration       time.Duration
	PointsPerCommand   int
	PointsPerVoteWin   int
	LeaderboardSize    int
	DedupWindow        int
	DequeueWait        time.Duration
	ScreenshotInterval time.Duration
}

// Deps son los colaboradores que el orquestador recibe ya armados.
type Deps struct {
	Registry *commands.Registry
	Perms    *permissions.Resolver
	Gate     *admission.Limiter
	Votes    *vote.Arbiter
	Queue    *queue.Queue
	Actuator domain.Actuator
	Users    domain.UserRepository
	Out      domain.Announcer
	Bus      *events.Bus
	Executor *Executor
}

// Bot es el orquestador: cablea parser, permisos, admisión, votación y cola
// en un solo pipeline, y es dueño de la puerta de readiness del actuador y
// del estado mutable compartido (dedup, baneados).
type Bot struct {
	cfg  Config
	reg  *commands.Registry
	perm *permissions.Resolver
	gate *admission.Limiter
	vote *vote.Arbiter
	q    *queue.Queue
	act  domain.Actuator
	repo domain.UserRepository
	out  domain.Announcer
	bus  *events.Bus
	exec *Executor

	dedup *dedupWindow

	banMu  sync.Mutex
	banned map[string]struct{}

	// voteOptions: nombres Major válidos como destino de !vote, de la tabla.
	voteOptions map[string]struct{}

	inFlight  atomic.Bool
	startTime time.Time
	wg        sync.WaitGroup
}

// silentDrop: micro-acciones de puntero/teclado que con rate limit se
// descartan sin aviso; avisar cada una sería más spam que el propio spam.
var silentDrop = map[commands.Action]struct{}{
	commands.ActionMove:       {},
	commands.ActionClick:      {},
	commands.ActionRightClick: {},
	commands.ActionType:       {},
	commands.ActionSend:       {},
	commands.ActionKey:        {},
	commands.ActionEnter:      {},
	commands.ActionScroll:     {},
	commands.ActionMouseAbs:   {},
	commands.ActionDrag:       {},
}

func New(cfg Config, deps Deps) *Bot {
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = time.Second
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 2048
	}
	b := &Bot{
		cfg:         cfg,
		reg:         deps.Registry,
		perm:        deps.Perms,
		gate:        deps.Gate,
		vote:        deps.Votes,
		q:           deps.Queue,
		act:         deps.Actuator,
		repo:        deps.Users,
		out:         deps.Out,
		bus:         deps.Bus,
		exec:        deps.Executor,
		dedup:       newDedupWindow(cfg.DedupWindow),
		banned:      make(map[string]struct{}),
		voteOptions: make(map[string]struct{}),
		startTime:   time.Now(),
	}
	for _, def := range deps.Registry.Defs() {
		if def.Tier == commands.TierMajor {
			b.voteOptions[def.Name] = struct{}{}
		}
	}
	return b
}

// Run levanta el consumidor de la cola, el ejecutor de resultados de
// votación y los tickers. Bloquea hasta que el contexto muera.
func (b *Bot) Run(ctx context.Context) error {
	b.announce(ctx, "🤖 Arch Linux Chaos Mode is LIVE! Type !help for commands. Let's install Arch together... or break it trying! 🐧")

	b.wg.Add(3)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(ctx)
	}()
	go func() {
		defer b.wg.Done()
		b.voteResultLoop(ctx)
	}()
	go func() {
		defer b.wg.Done()
		b.voteTickerLoop(ctx)
	}()

	if b.cfg.ScreenshotInterval > 0 {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.screenshotLoop(ctx)
		}()
	}

	<-ctx.Done()
	b.wg.Wait()
	log.Println("bot: pipeline detenido")
	return ctx.Err()
}

// HandleMessage es el intake del pipeline; el adapter del feed lo llama por
// cada mensaje. Nunca devuelve error por un comando malo: los fallos de un
// comando jamás tumban el pipeline.
func (b *Bot) HandleMessage(ctx context.Context, msg domain.ChatMessage) error {
	if b.dedup.Seen(msg.ID) {
		return nil
	}

	b.bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, b.reg.Prefix()) {
		return nil
	}

	if b.isBanned(msg) {
		return nil
	}

	if _, err := b.repo.GetOrCreate(ctx, msg.AuthorID, msg.AuthorName); err != nil {
		log.Printf("bot: user upsert: %v", err)
	}

	cmd := b.reg.Parse(text)
	if cmd == nil {
		return nil
	}

	level := b.perm.Resolve(msg)
	if !level.Allows(cmd.Permission) {
		b.announceFor(ctx, msg.AuthorName, fmt.Sprintf("❌ No permission for !%s", cmd.Name))
		return nil
	}

	// Comandos de sistema instantáneos: cortocircuitan la admisión.
	switch cmd.Action {
	case commands.ActionHelp:
		topic := ""
		if len(cmd.Args) > 0 {
			topic = cmd.Args[0]
		}
		b.announce(ctx, b.reg.HelpText(topic))
		return nil
	case commands.ActionVoteCast:
		b.handleVoteCast(ctx, msg, cmd)
		return nil
	case commands.ActionBan, commands.ActionUnban:
		b.handleModeration(ctx, msg, cmd)
		return nil
	}

	admitted, reason := b.gate.Check(msg.AuthorID, cmd.Name)
	if !admitted {
		if _, silent := silentDrop[cmd.Action]; silent && cmd.Tier == commands.TierClassic {
			return nil
		}
		b.announceFor(ctx, msg.AuthorName, "⏳ "+reason)
		return nil
	}

	if cmd.Tier == commands.TierMajor {
		b.handleMajor(ctx, msg, cmd)
		return nil
	}

	// Recién acá se consume presupuesto de cooldown: todas las otras
	// puertas ya pasaron.
	b.gate.Record(msg.AuthorID, cmd.Name)

	if cmd.Tier == commands.TierAdmin {
		b.runImmediate(ctx, msg, cmd)
		return nil
	}

	if err := b.repo.IncrementCommands(ctx, msg.AuthorID); err != nil {
		log.Printf("bot: increment commands: %v", err)
	}
	if err := b.repo.AddPoints(ctx, msg.AuthorID, b.cfg.PointsPerCommand); err != nil {
		log.Printf("bot: add points: %v", err)
	}

	b.setActiveCommand(msg.AuthorName, cmd)

	ok := b.q.Enqueue(queue.Item{Command: cmd, UserDisplay: msg.AuthorName, UserID: msg.AuthorID})
	if !ok {
		b.announceFor(ctx, msg.AuthorName, "⚠️ Queue full, try again later")
		b.clearActiveCommand()
	}
	return nil
}

// ── Votación ────────────────────────────────────────────────────────────────

func (b *Bot) handleMajor(ctx context.Context, msg domain.ChatMessage, cmd *commands.Parsed) {
	opened := b.vote.Submit(msg.AuthorID, cmd.Name)
	if err := b.repo.IncrementVotesCast(ctx, msg.AuthorID); err != nil {
		log.Printf("bot: increment votes: %v", err)
	}

	if opened {
		b.announce(ctx, fmt.Sprintf(
			"🗳️ VOTE STARTED! Type !vote shutdown or !vote forceshutdown. You have %ds! Current: !%s (1 vote)",
			int(b.cfg.VoteDuration.Seconds()), cmd.Name,
		))
		return
	}

	if status, ok := b.vote.Status(); ok {
		b.announceFor(ctx, msg.AuthorName, fmt.Sprintf(
			"voted !%s. [%s] - %.0fs left",
			cmd.Name, formatCounts(status.Counts), status.Remaining.Seconds(),
		))
	}
}

func (b *Bot) handleVoteCast(ctx context.Context, msg domain.ChatMessage, cmd *commands.Parsed) {
	target := strings.ToLower(strings.TrimPrefix(cmd.Args[0], b.reg.Prefix()))
	if _, ok := b.voteOptions[target]; !ok {
		b.announceFor(ctx, msg.AuthorName, "Vote options: "+strings.Join(b.voteOptionNames(), ", "))
		return
	}

	if !b.vote.Cast(msg.AuthorID, target) {
		b.announceFor(ctx, msg.AuthorName, "❌ No active vote right now. Trigger !shutdown or !forceshutdown first.")
		return
	}

	if err := b.repo.IncrementVotesCast(ctx, msg.AuthorID); err != nil {
		log.Printf("bot: increment votes: %v", err)
	}
	if status, ok := b.vote.Status(); ok {
		b.announceFor(ctx, msg.AuthorName, fmt.Sprintf("✅ Voted !%s. [%s]", target, formatCounts(status.Counts)))
	}
}

func (b *Bot) voteResultLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-b.vote.Results():
			b.bus.Publish(events.TopicVoteStatus, (*events.VoteStatusDTO)(nil))

			if res.Winner == "" {
				b.announce(ctx, "🗳️ Vote ended with no winner.")
				continue
			}

			b.announce(ctx, fmt.Sprintf("🗳️ Vote ended! [%s] → Winner: !%s 🎉", formatCounts(res.Counts), res.Winner))

			for _, uid := range res.Voters {
				if err := b.repo.AddPoints(ctx, uid, b.cfg.PointsPerVoteWin); err != nil {
					log.Printf("bot: vote win points: %v", err)
				}
				if err := b.repo.IncrementVotesWon(ctx, uid); err != nil {
					log.Printf("bot: vote win counter: %v", err)
				}
			}

			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}

			// La acción ganadora corre recién después del despacho del
			// resultado, nunca mezclada con la contabilidad de votos.
			b.inFlight.Store(true)
			result := b.exec.ExecuteShutdown(ctx, res.Winner == "forceshutdown")
			b.inFlight.Store(false)
			if result.Message != "" {
				b.announce(ctx, result.Message)
			}
		}
	}
}

func (b *Bot) voteTickerLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status, ok := b.vote.Status(); ok {
				b.bus.Publish(events.TopicVoteStatus, &events.VoteStatusDTO{
					Options:       status.Counts,
					TimeRemaining: status.Remaining.Seconds(),
				})
			}
		}
	}
}

// ── Cola / ejecución ────────────────────────────────────────────────────────

func (b *Bot) consumeLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		item, ok := b.q.Dequeue(ctx, b.cfg.DequeueWait)
		if !ok {
			continue
		}
		b.processItem(ctx, item)
	}
}

func (b *Bot) processItem(ctx context.Context, item queue.Item) {
	defer b.clearActiveCommand()
	cmd := item.Command

	// Comandos de estado: corren aunque el actuador no esté listo.
	switch cmd.Action {
	case commands.ActionStats:
		b.announce(ctx, b.formatStats(ctx, item.UserID, item.UserDisplay))
		return
	case commands.ActionLeaderboard:
		b.announce(ctx, b.formatLeaderboard(ctx))
		return
	case commands.ActionUptime:
		up := time.Since(b.startTime)
		h := int(up.Hours())
		m := int(up.Minutes()) % 60
		s := int(up.Seconds()) % 60
		b.announce(ctx, fmt.Sprintf("⏱️ Stream uptime: %02d:%02d:%02d", h, m, s))
		return
	}

	if !b.act.Ready(ctx) {
		b.announceFor(ctx, item.UserDisplay, "❌ VM is not running! Try !startvm")
		return
	}

	b.inFlight.Store(true)
	res := b.exec.Execute(ctx, cmd)
	b.inFlight.Store(false)

	if res.Message != "" && (res.Public || !res.OK) {
		b.announceFor(ctx, item.UserDisplay, res.Message)
	}
}

// runImmediate corre los comandos de sistema Admin sin pasar por la cola,
// solo si el actuador no está ya en medio de una acción.
func (b *Bot) runImmediate(ctx context.Context, msg domain.ChatMessage, cmd *commands.Parsed) {
	if b.inFlight.Load() {
		b.announceFor(ctx, msg.AuthorName, "⏳ An action is already running, try again in a moment")
		return
	}
	res := b.exec.Execute(ctx, cmd)
	if res.Message != "" && (res.Public || !res.OK) {
		b.announceFor(ctx, msg.AuthorName, res.Message)
	}
}

func (b *Bot) screenshotLoop(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.ScreenshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !b.act.Ready(ctx) {
				continue
			}
			if _, err := b.act.Screenshot(ctx); err != nil {
				log.Printf("bot: screenshot: %v", err)
			}
		}
	}
}

// ── Moderación ─────────────────────────────────────────────────────────────

func (b *Bot) handleModeration(ctx context.Context, msg domain.ChatMessage, cmd *commands.Parsed) {
	target := strings.TrimPrefix(cmd.Args[0], "@")
	key := strings.ToLower(target)

	b.banMu.Lock()
	if cmd.Action == commands.ActionBan {
		b.banned[key] = struct{}{}
	} else {
		delete(b.banned, key)
	}
	b.banMu.Unlock()

	if cmd.Action == commands.ActionBan {
		b.announce(ctx, fmt.Sprintf("🚫 %s has been banned from commands", target))
	} else {
		b.announce(ctx, fmt.Sprintf("✅ %s has been unbanned", target))
	}
}

func (b *Bot) isBanned(msg domain.ChatMessage) bool {
	b.banMu.Lock()
	defer b.banMu.Unlock()
	if _, ok := b.banned[strings.ToLower(msg.AuthorName)]; ok {
		return true
	}
	_, ok := b.banned[strings.ToLower(msg.AuthorID)]
	return ok
}

// ── Salida ─────────────────────────────────────────────────────────────────

func (b *Bot) announce(ctx context.Context, text string) {
	if err := b.out.Announce(ctx, text); err != nil {
		log.Printf("bot: announce: %v", err)
	}
}

func (b *Bot) announceFor(ctx context.Context, user, text string) {
	if err := b.out.AnnounceTo(ctx, user, text); err != nil {
		log.Printf("bot: announce to %s: %v", user, err)
	}
}

func (b *Bot) setActiveCommand(user string, cmd *commands.Parsed) {
	b.bus.Publish(events.TopicActiveCommand, &events.ActiveCommandDTO{
		User: user,
		Name: cmd.Name,
		Args: strings.Join(cmd.Args, " "),
	})
}

func (b *Bot) clearActiveCommand() {
	b.bus.Publish(events.TopicActiveCommand, (*events.ActiveCommandDTO)(nil))
}

// ── Formatos ───────────────────────────────────────────────────────────────

func (b *Bot) formatStats(ctx context.Context, userID, display string) string {
	user, err := b.repo.Stats(ctx, userID)
	if err != nil || user == nil {
		return fmt.Sprintf("📊 @%s | no stats yet", display)
	}
	return fmt.Sprintf(
		"📊 @%s | Rank: %s | Points: %d | Commands: %d | Votes: %d (won: %d)",
		user.DisplayName, user.Rank(), user.Points, user.CommandsExecuted, user.VotesCast, user.VotesWon,
	)
}

func (b *Bot) formatLeaderboard(ctx context.Context) string {
	top, err := b.repo.Leaderboard(ctx, b.cfg.LeaderboardSize)
	if err != nil {
		log.Printf("bot: leaderboard: %v", err)
		return "🏆 Leaderboard unavailable"
	}
	if len(top) == 0 {
		return "🏆 Leaderboard is empty!"
	}
	if len(top) > 5 {
		top = top[:5]
	}
	entries := make([]string, 0, len(top))
	for i, u := range top {
		entries = append(entries, fmt.Sprintf("#%d %s: %dpts", i+1, u.DisplayName, u.Points))
	}
	return "🏆 Top Players: " + strings.Join(entries, " | ")
}

func (b *Bot) voteOptionNames() []string {
	names := make([]string, 0, len(b.voteOptions))
	for name := range b.voteOptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatCounts ordena por votos descendente y desempata por nombre, para que
// el anuncio sea estable.
func formatCounts(counts map[string]int) string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("!%s: %d", e.name, e.count))
	}
	return strings.Join(parts, " | ")
}
