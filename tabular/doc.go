/*
Package tabular 将修复后的记录整理为表格并持久化。

# 概述

Project 把记录投影到 schema 字段上：缺失字段为 null，未知字段丢弃，
标识符字段由文件名解析出的标识符覆盖。Store 基于 gorm 持久化运行、
记录、报告原文与药品表；WriteCSV 按 schema 字段顺序导出，
嵌套对象以 "parent.child" 展平。
*/
package tabular
