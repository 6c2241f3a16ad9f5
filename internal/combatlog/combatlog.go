// Package combatlog writes a per-action narrative of battles to a zap
// logger. Nothing is written unless a destination is configured.
package combatlog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/louisbranch/skirmish/internal/combat"
)

// Logger narrates battle records. The zero value and a nil *Logger discard
// everything.
type Logger struct {
	log   *zap.Logger
	close func()
}

// Open builds a console-encoded logger appending to path. "stdout" and
// "stderr" are accepted. An empty path returns a discarding logger.
func Open(path string) (*Logger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Nop(), nil
	}
	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open combat log %s: %w", path, err)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), sink, zap.InfoLevel)
	return &Logger{log: zap.New(core), close: closeSink}, nil
}

// New wraps an existing zap logger.
func New(log *zap.Logger) *Logger {
	if log == nil {
		return Nop()
	}
	return &Logger{log: log}
}

// Nop returns a logger that writes nothing.
func Nop() *Logger {
	return &Logger{log: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

// Enabled reports whether records are actually written.
func (l *Logger) Enabled() bool {
	return l != nil && l.log != nil && l.log.Core().Enabled(zap.InfoLevel)
}

// Battle logs every action of record followed by its outcome. Records built
// without a turn log only produce the outcome line.
func (l *Logger) Battle(record combat.BattleRecord) {
	if !l.Enabled() {
		return
	}
	log := l.log.With(zap.Int("arena", record.Arena), zap.Int("battle", record.ID))
	for _, turn := range record.TurnLog {
		for _, action := range turn.Actions {
			if !action.HasTarget() {
				log.Info("no target",
					zap.Int("turn", turn.Turn),
					zap.String("actor", action.ActorName))
				continue
			}
			log.Info(action.Kind.String(),
				zap.Int("turn", turn.Turn),
				zap.String("actor", action.ActorName),
				zap.String("target", action.Target),
				zap.Int("roll", action.Roll),
				zap.Bool("hit", action.Hit),
				zap.Int("margin", action.Margin),
				zap.Int("damage", action.Damage),
				zap.Stringer("target_health", action.TargetHealth))
		}
	}

	fields := []zap.Field{
		zap.Int("turns", record.Turns),
		zap.Bool("stalemate", record.Stalemate),
		zap.Stringer("initiative_team", record.InitiativeTeam),
	}
	if record.HasWinner() {
		fields = append(fields,
			zap.Stringer("winner", record.Winner),
			zap.Bool("winner_had_initiative", record.WinnerHadInitiative))
		if record.WinningCharacter != nil {
			fields = append(fields, zap.String("winning_character", record.WinningCharacter.Name))
		}
	}
	log.Info("battle over", fields...)
}

// Close flushes buffered entries and releases the output file.
func (l *Logger) Close() error {
	if l == nil || l.log == nil {
		return nil
	}
	err := l.log.Sync()
	if l.close != nil {
		l.close()
		l.close = nil
	}
	if err != nil && !isStdSyncError(err) {
		return fmt.Errorf("sync combat log: %w", err)
	}
	return nil
}

// Syncing a terminal fails with EINVAL on some platforms.
func isStdSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
