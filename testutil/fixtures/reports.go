// Package fixtures 提供 NBSE 报告与生成器输出的测试样例。
package fixtures

// ReportText 是一份简短的神经行为评估报告原文。
const ReportText = `NEUROBEHAVIORAL STATUS EXAM
Encounter: in-person
Date: 05/01/24

72 year old male with 16 years of education.
MoCA 24/30. Trails A 38 seconds, Trails B 95 seconds.
Medications: donepezil 10mg, Non-VA aspirin 81mg.
Impression: Mild Cognitive Impairment (MCI).
`

// ConformantOutput 是完全符合 NBSE 模式的生成器输出。
const ConformantOutput = `{
  "vac": 123,
  "completed": "2024-05-01",
  "age": 72,
  "sex": "male",
  "education": 16,
  "encounter_type": "in-person",
  "medications": ["donepezil 10mg", "aspirin 81mg"],
  "diagnosis": "Mild Cognitive Impairment (MCI)"
}`

// FencedOutput 带 Markdown 围栏与尾随逗号，需要容错恢复。
const FencedOutput = "```json\n{\n  \"vac\": 45,\n  \"age\": 80,\n  \"sex\": \"female\",\n}\n```"

// ViolatingOutput 含越界、枚举与类型错误，修复后三个字段被置空。
const ViolatingOutput = `{
  "vac": 7,
  "age": 72,
  "sex": "M",
  "education": "sixteen",
  "moca_total_score": 41
}`

// GarbageOutput 无法恢复为任何结构化值。
const GarbageOutput = "I could not find a report in the input."

// ArrayOutput 是合法 JSON 但顶层不是对象。
const ArrayOutput = `[{"vac": 1}]`
