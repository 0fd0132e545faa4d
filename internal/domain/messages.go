package domain

import (
	"golang.org/x/text/language"
)

var supportedLocales = []language.Tag{language.English, language.Indonesian}

var localeMatcher = language.NewMatcher(supportedLocales)

var userMessages = map[string]map[ErrorKind]string{
	"en": {
		KindValidation:  "The request is incomplete or invalid. Check the prompt and reference image.",
		KindAuth:        "The API key was rejected. Fix your API key and try again.",
		KindPermission:  "This API key has no access to the video model.",
		KindRateLimit:   "Quota exceeded. Try again later or upgrade your plan.",
		KindTransient:   "The video service is temporarily unavailable. Try again shortly.",
		KindEmptyResult: "The generation finished but no asset was produced.",
		KindTimedOut:    "Generation took too long and was abandoned.",
		KindDownload:    "The video was generated but could not be downloaded.",
		KindCancelled:   "Generation was cancelled.",
		KindUnknown:     "Video generation failed.",
	},
	"id": {
		KindValidation:  "Permintaan tidak lengkap atau tidak valid. Periksa prompt dan gambar referensi.",
		KindAuth:        "API key ditolak. Perbaiki API key Anda lalu coba lagi.",
		KindPermission:  "API key ini tidak memiliki akses ke model video.",
		KindRateLimit:   "Kuota habis. Coba lagi nanti atau tingkatkan paket Anda.",
		KindTransient:   "Layanan video sedang tidak tersedia. Coba lagi sebentar lagi.",
		KindEmptyResult: "Proses selesai tetapi tidak ada video yang dihasilkan.",
		KindTimedOut:    "Pembuatan video terlalu lama dan dihentikan.",
		KindDownload:    "Video berhasil dibuat tetapi gagal diunduh.",
		KindCancelled:   "Pembuatan video dibatalkan.",
		KindUnknown:     "Pembuatan video gagal.",
	},
}

// MatchLocale maps an arbitrary locale string onto a supported message locale.
func MatchLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	_, idx, _ := localeMatcher.Match(tag)
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// UserMessage returns the single human-readable message for a terminal kind.
func UserMessage(kind ErrorKind, locale string) string {
	catalog := userMessages[MatchLocale(locale)]
	if msg, ok := catalog[kind]; ok {
		return msg
	}
	return catalog[KindUnknown]
}

// MessageFor returns the user-facing message for err.
func MessageFor(err error, locale string) string {
	return UserMessage(KindOf(err), locale)
}
