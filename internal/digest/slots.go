package digest

import (
	"fmt"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/platform/schedule"
)

// HoursUntil returns the forward distance from cur to target on a 24h clock.
// Equal hours give 0.
func HoursUntil(cur, target int) int {
	if cur <= target {
		return target - cur
	}

	return hoursPerDay - (cur - target)
}

// HoursSince returns the backward distance from cur to prev on a 24h clock.
// Equal hours give 0.
func HoursSince(cur, prev int) int {
	if cur >= prev {
		return cur - prev
	}

	return cur + (hoursPerDay - prev)
}

// neighbor is another slot whose hour bounds this slot's window. unparsed is
// used when the neighbor is enabled but its hour cannot be read.
type neighbor struct {
	slot     string
	unparsed int
}

// Slot describes one of the three daily digests.
type Slot struct {
	Name        string
	Greeting    string
	VoiceOpener string
	FallbackFmt string

	next        []neighbor
	nextDefault int
	prev        []neighbor
	prevDefault int
}

// Slots are evaluated in this order on every tick.
var Slots = []Slot{
	{
		Name:        SlotMorning,
		Greeting:    "Good morning!",
		VoiceOpener: "Good morning! Want to hear your morning digest?",
		FallbackFmt: "Good morning! Here's your morning digest covering the last %d hours. Next digest in %d hours.",
		next:        []neighbor{{SlotDay, 12}, {SlotEvening, 18}},
		nextDefault: 0,
		prev:        []neighbor{{SlotEvening, 18}},
		prevDefault: 0,
	},
	{
		Name:        SlotDay,
		Greeting:    "Hello!",
		VoiceOpener: "Hello! Want to hear your daily digest?",
		FallbackFmt: "Hello! Here's your daily digest covering the last %d hours. Next digest in %d hours.",
		next:        []neighbor{{SlotEvening, 0}},
		nextDefault: 0,
		prev:        []neighbor{{SlotMorning, 6}},
		prevDefault: 6,
	},
	{
		Name:        SlotEvening,
		Greeting:    "Good evening!",
		VoiceOpener: "Good evening! Want to hear your evening digest?",
		FallbackFmt: "Good evening! Here's your evening digest covering the last %d hours. Next digest in %d hours.",
		next:        []neighbor{{SlotMorning, 8}},
		nextDefault: 8,
		prev:        []neighbor{{SlotDay, 12}},
		prevDefault: 12,
	},
}

// SlotByName returns the slot with the given name.
func SlotByName(name string) (Slot, bool) {
	for _, s := range Slots {
		if s.Name == name {
			return s, true
		}
	}

	return Slot{}, false
}

// ContentType tags notifications sent for this slot.
func (s Slot) ContentType() string {
	return fmt.Sprintf(contentTypeFmt, s.Name)
}

// Setting returns the configured hour string of this slot.
func (s Slot) Setting(d domain.DigestSettings) string {
	return slotSetting(d, s.Name)
}

// Fallback is the text sent when composition fails.
func (s Slot) Fallback(hoursSincePrev, hoursToNext int) string {
	return fmt.Sprintf(s.FallbackFmt, hoursSincePrev, hoursToNext)
}

// Greet prefixes a composed digest with the slot greeting.
func (s Slot) Greet(digest string) string {
	return s.Greeting + " " + digest
}

// Window returns the hours to the next digest and since the previous one,
// seen from hour. The first enabled neighbor wins; disabled neighbors fall
// back to the slot's fixed default hour.
func (s Slot) Window(hour int, d domain.DigestSettings) (hoursToNext, hoursSincePrev int) {
	return HoursUntil(hour, neighborHour(s.next, s.nextDefault, d)),
		HoursSince(hour, neighborHour(s.prev, s.prevDefault, d))
}

func neighborHour(neighbors []neighbor, fallback int, d domain.DigestSettings) int {
	for _, n := range neighbors {
		value := slotSetting(d, n.slot)
		if value == "" {
			continue
		}

		hour, err := schedule.ParseHour(value)
		if err != nil {
			return n.unparsed
		}

		return hour
	}

	return fallback
}

func slotSetting(d domain.DigestSettings, name string) string {
	switch name {
	case SlotMorning:
		return d.Morning
	case SlotDay:
		return d.Day
	case SlotEvening:
		return d.Evening
	default:
		return ""
	}
}
