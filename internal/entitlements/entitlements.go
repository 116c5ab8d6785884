// Package entitlements содержит единую таблицу соответствия тарифа набору
// возможностей и проверку доступа к возможности по её имени.
//
// Таблица дублирует серверную логику и используется двумя потребителями:
// как запасной вариант на клиенте, когда бэкенд не прислал features,
// и как источник каталога тарифов в стабе бэкенда. Единственный источник
// истины предотвращает расхождение клиентской и серверной таблиц.
package entitlements

import (
	"slices"
	"strings"

	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

// Unlimited — значение лимита, означающее отсутствие ограничения.
const Unlimited = -1

// Feature — имя возможности из фиксированного перечисления.
type Feature string

// Возможности, доступ к которым зависит от тарифа.
const (
	FeatureAutomation      Feature = "automation"
	FeatureAnalytics       Feature = "analytics"
	FeatureUnlimitedPosts  Feature = "unlimited"
	FeatureWebsiteScraping Feature = "website_scraping"
	FeatureBulkGeneration  Feature = "bulk_generation"
	FeatureDMSIntegration  Feature = "dms_integration"
)

const platformPrefix = "platform:"

// Platform возвращает Feature для проверки доступа к платформе по её имени.
func Platform(name string) Feature {
	return Feature(platformPrefix + name)
}

// table — таблица возможностей по тарифам. Инвариант: множества платформ
// вложены друг в друга (trial ⊂ starter ⊂ professional ⊂ enterprise),
// youtube доступен только на enterprise.
var table = map[string]models.FeatureSet{
	models.PlanTrial: {
		MaxPostsPerMonth: 10,
		MaxImages:        20,
		Platforms:        []string{"facebook", "instagram"},
		Support:          "email",
	},
	models.PlanStarter: {
		MaxPostsPerMonth: 50,
		MaxImages:        100,
		Platforms:        []string{"facebook", "instagram", "tiktok"},
		WebsiteScraping:  true,
		BulkGeneration:   true,
		Support:          "email",
	},
	models.PlanProfessional: {
		MaxPostsPerMonth: 200,
		MaxImages:        500,
		Platforms:        []string{"facebook", "instagram", "tiktok", "reddit", "x"},
		WebsiteScraping:  true,
		BulkGeneration:   true,
		DMSIntegration:   true,
		Automation:       true,
		Analytics:        true,
		Support:          "priority",
	},
	models.PlanEnterprise: {
		MaxPostsPerMonth: Unlimited,
		MaxImages:        Unlimited,
		Platforms:        []string{"facebook", "instagram", "tiktok", "reddit", "x", "youtube"},
		WebsiteScraping:  true,
		BulkGeneration:   true,
		DMSIntegration:   true,
		Automation:       true,
		Analytics:        true,
		Support:          "dedicated",
	},
}

// Fallback возвращает набор возможностей тарифа из локальной таблицы.
// Неизвестный тариф трактуется как trial — самый ограниченный ответ.
func Fallback(plan string) models.FeatureSet {
	fs, ok := table[plan]
	if !ok {
		return clone(table[models.PlanTrial])
	}
	return clone(fs)
}

// Plans возвращает список идентификаторов тарифов в порядке возрастания.
func Plans() []string {
	return []string{models.PlanTrial, models.PlanStarter, models.PlanProfessional, models.PlanEnterprise}
}

// Allows проверяет, даёт ли набор возможностей доступ к возможности f.
// Неизвестная возможность считается недоступной.
func Allows(fs models.FeatureSet, f Feature) bool {
	switch f {
	case FeatureAutomation:
		return fs.Automation
	case FeatureAnalytics:
		return fs.Analytics
	case FeatureWebsiteScraping:
		return fs.WebsiteScraping
	case FeatureBulkGeneration:
		return fs.BulkGeneration
	case FeatureDMSIntegration:
		return fs.DMSIntegration
	case FeatureUnlimitedPosts:
		return fs.MaxPostsPerMonth == Unlimited
	}
	if name, ok := strings.CutPrefix(string(f), platformPrefix); ok {
		return slices.Contains(fs.Platforms, name)
	}
	return false
}

func clone(fs models.FeatureSet) models.FeatureSet {
	fs.Platforms = slices.Clone(fs.Platforms)
	return fs
}
