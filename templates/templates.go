package templates

import _ "embed"

var (
	//go:embed resource/hello.txt
	Hello string
	//go:embed resource/unexpectedError.txt
	UnexpectedError string
	//go:embed resource/unknownThread.txt
	UnknownThread string
	//go:embed resource/topicOnly.txt
	TopicOnly string
	//go:embed resource/invalidHours.txt
	InvalidHours string
	//go:embed resource/booked.txt
	Booked string
	//go:embed resource/bookFailed.txt
	BookFailed string
	//go:embed resource/alreadyTaken.txt
	AlreadyTaken string
	//go:embed resource/dailyLimit.txt
	DailyLimit string
	//go:embed resource/weeklyLimit.txt
	WeeklyLimit string
	//go:embed resource/cancelled.txt
	Cancelled string
	//go:embed resource/notYours.txt
	NotYours string
	//go:embed resource/nothingCancelled.txt
	NothingCancelled string
	//go:embed resource/bookUsage.txt
	BookUsage string
	//go:embed resource/unbookUsage.txt
	UnbookUsage string
	//go:embed resource/courtAdded.txt
	CourtAdded string
	//go:embed resource/courtExists.txt
	CourtExists string
	//go:embed resource/courtNotFound.txt
	CourtNotFound string
	//go:embed resource/bookingHoursUsage.txt
	BookingHoursUsage string
	//go:embed resource/bookingHoursSet.txt
	BookingHoursSet string
	//go:embed resource/maxHoursUsage.txt
	MaxHoursUsage string
	//go:embed resource/maxHoursSet.txt
	MaxHoursSet string
	//go:embed resource/weeklyUsage.txt
	WeeklyUsage string
	//go:embed resource/weeklySet.txt
	WeeklySet string
	//go:embed resource/timezoneUsage.txt
	TimezoneUsage string
	//go:embed resource/timezoneSet.txt
	TimezoneSet string
	//go:embed resource/botStarted.txt
	BotStarted string
	//go:embed resource/botStopped.txt
	BotStopped string
)
