package repository

import (
	"fmt"

	"ticker-digest/internal/entity"
)

const newsAnalysisPromptRU = `Выступи в роли финансового аналитика. Проанализируй следующий заголовок финансовой новости: "%s".
Твоя задача:
1. Кратко пересказать суть новости на русском языке в одном предложении.
2. Оценить потенциальное влияние (Позитивное, Нейтральное, Негативное) на акции компании.
3. Дать очень краткий прогноз на 1-3 дня.
Ответь строго в формате:
СУТЬ: [Твой пересказ]
ВЛИЯНИЕ: [Твоя оценка]
ПРОГНОЗ: [Твой прогноз]`

const newsAnalysisPromptEN = `Act as a financial analyst. Analyze the following financial news headline: "%s".
Your task:
1. Briefly summarize the news essence in one sentence in English.
2. Assess the potential impact (Positive, Neutral, Negative) on the company's stock.
3. Provide a very short-term forecast (1-3 days).
Respond strictly in the format:
ESSENCE: [Your summary]
IMPACT: [Your assessment]
FORECAST: [Your forecast]`

// BuildNewsAnalysisPrompt asks for essence, impact and a short forecast of a headline.
func BuildNewsAnalysisPrompt(title string, lang entity.Language) string {
	if lang == entity.LanguageRU {
		return fmt.Sprintf(newsAnalysisPromptRU, title)
	}
	return fmt.Sprintf(newsAnalysisPromptEN, title)
}
